package commands

import (
	"GophDrive/internal/cli/auth"
	"GophDrive/internal/config"
	"context"
	"fmt"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the current owner and check the server accepts the token" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	token, err := auth.LoadToken(cfg)
	if err != nil {
		return err
	}
	owner, err := auth.Owner(token)
	if err != nil {
		return err
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	roots, err := drive.Roots(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Server: %s\nOwner: %s\nRoot folders: %d\n", cfg.ServerURL, owner, len(roots))
	return nil
}

func init() { Register(GroupAccount, statusCmd{}) }
