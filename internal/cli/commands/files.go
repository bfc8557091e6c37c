package commands

import (
	"GophDrive/internal/config"
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Upload a local file into a folder" }
func (uploadCmd) Usage() string       { return "upload <folder-uuid> <local-path>" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	f, err := drive.Upload(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s  %s  %s\n", f.UUID, f.Path, humanize.IBytes(uint64(f.Size)))
	return nil
}

type downloadCmd struct{}

func (downloadCmd) Name() string        { return "download" }
func (downloadCmd) Description() string { return "Download a file (to its own name when no path is given)" }
func (downloadCmd) Usage() string       { return "download <file-uuid> [local-path]" }

func (downloadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	dest := ""
	if len(args) == 2 {
		dest = args[1]
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	path, n, err := drive.Download(ctx, args[0], dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Saved %s (%s)\n", path, humanize.IBytes(uint64(n)))
	return nil
}

type urlCmd struct{}

func (urlCmd) Name() string        { return "url" }
func (urlCmd) Description() string { return "Print a temporary download link" }
func (urlCmd) Usage() string       { return "url <file-uuid> [minutes]" }

func (urlCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	minutes := 0
	if len(args) == 2 {
		m, err := strconv.Atoi(args[1])
		if err != nil || m <= 0 {
			return ErrUsage
		}
		minutes = m
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	u, err := drive.URL(ctx, args[0], minutes)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, u)
	return nil
}

func init() {
	Register(GroupFiles, uploadCmd{})
	Register(GroupFiles, downloadCmd{})
	Register(GroupFiles, urlCmd{})
}
