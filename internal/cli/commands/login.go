package commands

import (
	"GophDrive/internal/cli/auth"
	"GophDrive/internal/config"
	"context"
	"fmt"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Store an auth token issued for your account" }
func (loginCmd) Usage() string       { return "login <token>" }

func (loginCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	owner, err := auth.Owner(args[0])
	if err != nil {
		return err
	}
	if err := auth.Store(cfg).Save(args[0]); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	fmt.Fprintf(Out, "Logged in as %s\n", owner)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return auth.Store(cfg).Clear()
}

func init() {
	Register(GroupAccount, loginCmd{})
	Register(GroupAccount, logoutCmd{})
}
