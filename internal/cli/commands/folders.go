package commands

import (
	"GophDrive/internal/cli/api"
	"GophDrive/internal/config"
	"context"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
)

type rootsCmd struct{}

func (rootsCmd) Name() string        { return "roots" }
func (rootsCmd) Description() string { return "List root folders" }
func (rootsCmd) Usage() string       { return "roots" }

func (rootsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	roots, err := drive.Roots(ctx)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		fmt.Fprintln(Out, "No folders")
		return nil
	}
	for _, f := range roots {
		fmt.Fprintf(Out, "%s  %s\n", f.UUID, f.Path)
	}
	return nil
}

type mkdirCmd struct{}

func (mkdirCmd) Name() string        { return "mkdir" }
func (mkdirCmd) Description() string { return "Create a root folder, or a subfolder of <parent-uuid>" }
func (mkdirCmd) Usage() string       { return "mkdir [<parent-uuid>] <name>" }

func (mkdirCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var parent, name string
	switch len(args) {
	case 1:
		name = args[0]
	case 2:
		parent, name = args[0], args[1]
	default:
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	f, err := drive.Mkdir(ctx, parent, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s  %s\n", f.UUID, f.Path)
	return nil
}

type lsCmd struct{}

func (lsCmd) Name() string        { return "ls" }
func (lsCmd) Description() string { return "List subfolders and files of a folder" }
func (lsCmd) Usage() string       { return "ls <folder-uuid>" }

func (lsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	folders, files, err := drive.List(ctx, args[0])
	if err != nil {
		return err
	}
	for _, f := range folders {
		fmt.Fprintf(Out, "d  %s  %s\n", f.UUID, f.Path)
	}
	for _, f := range files {
		fmt.Fprintf(Out, "f  %s  %s  %s\n", f.UUID, f.Path, humanize.IBytes(uint64(f.Size)))
	}
	fmt.Fprintf(Out, "Total: %d folders, %d files\n", len(folders), len(files))
	return nil
}

type infoCmd struct{}

func (infoCmd) Name() string        { return "info" }
func (infoCmd) Description() string { return "Show details of a folder or file" }
func (infoCmd) Usage() string       { return "info <uuid>" }

func (infoCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	drive, err := newDrive(cfg)
	if err != nil {
		return err
	}
	d, err := drive.FolderDetails(ctx, args[0])
	if err == nil {
		fmt.Fprintf(Out, "Folder: %s\nUUID: %s\nSubfolders: %d\nFiles: %d\nSize: %s\n",
			d.Path, d.UUID, d.SubFolderCount, d.FileCount, d.FormattedSize)
		return nil
	}
	if !api.IsStatus(err, http.StatusNotFound) {
		return err
	}
	f, err := drive.File(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "File: %s\nUUID: %s\nSize: %s\nType: %s\nKey: %s\nUpdated: %s\n",
		f.Path, f.UUID, humanize.IBytes(uint64(f.Size)), f.ContentType, f.BlobKey, humanize.Time(f.UpdatedAt))
	return nil
}

func init() {
	Register(GroupFolders, rootsCmd{})
	Register(GroupFolders, mkdirCmd{})
	Register(GroupFolders, lsCmd{})
	Register(GroupFolders, infoCmd{})
}
