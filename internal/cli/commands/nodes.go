package commands

import (
	"GophDrive/internal/config"
	"context"
	"fmt"
)

type mvCmd struct{}

func (mvCmd) Name() string        { return "mv" }
func (mvCmd) Description() string { return "Move a folder or file into another folder" }
func (mvCmd) Usage() string       { return "mv <uuid> <dest-folder-uuid>" }

func (mvCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	n, err := drive.Move(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Moved to %s\n", n.Path())
	return nil
}

type renameCmd struct{}

func (renameCmd) Name() string        { return "rename" }
func (renameCmd) Description() string { return "Rename a folder or file" }
func (renameCmd) Usage() string       { return "rename <uuid> <new-name>" }

func (renameCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	n, err := drive.Rename(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Renamed to %s\n", n.Path())
	return nil
}

type rmCmd struct{}

func (rmCmd) Name() string        { return "rm" }
func (rmCmd) Description() string { return "Delete a file, or a folder with everything inside" }
func (rmCmd) Usage() string       { return "rm <uuid>" }

func (rmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	rep, err := drive.Remove(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted %d folders, %d files\n", rep.Folders, rep.Files)
	for _, k := range rep.Orphans {
		fmt.Fprintf(Out, "warning: content %s was not removed from storage\n", k)
	}
	return nil
}

func init() {
	Register(GroupNodes, mvCmd{})
	Register(GroupNodes, renameCmd{})
	Register(GroupNodes, rmCmd{})
}
