package commands

import (
	"GophDrive/internal/config"
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

type orphansCmd struct{}

func (orphansCmd) Name() string        { return "orphans" }
func (orphansCmd) Description() string { return "List unreconciled storage objects, or mark one resolved" }
func (orphansCmd) Usage() string       { return "orphans [resolve <id>]" }

func (orphansCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	switch {
	case len(args) == 0:
	case len(args) == 2 && args[0] == "resolve":
	default:
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return ErrUsage
		}
		if err := drive.ResolveOrphan(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Resolved %d\n", id)
		return nil
	}

	list, err := drive.Orphans(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No orphans")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(Out, "%d  %s  %s  %s\n", o.ID, o.Operation, o.BlobKey, humanize.Time(o.CreatedAt))
	}
	return nil
}

type blobsCmd struct{}

func (blobsCmd) Name() string        { return "blobs" }
func (blobsCmd) Description() string { return "List stored content keys under a path prefix" }
func (blobsCmd) Usage() string       { return "blobs [prefix]" }

func (blobsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	prefix := "/"
	if len(args) == 1 {
		prefix = args[0]
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	l, err := drive.Blobs(ctx, prefix)
	if err != nil {
		return err
	}
	for _, p := range l.CommonPrefixes {
		fmt.Fprintln(Out, p)
	}
	for _, n := range l.Names {
		fmt.Fprintln(Out, n)
	}
	return nil
}

func init() {
	Register(GroupStorage, orphansCmd{})
	Register(GroupStorage, blobsCmd{})
}
