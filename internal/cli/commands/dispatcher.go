package commands

import (
	"GophDrive/internal/cli/api"
	"GophDrive/internal/cli/auth"
	"GophDrive/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Коды выхода gdcli.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	// ExitAuth — токена нет или сервер его отклонил.
	ExitAuth = 3
)

// Dispatch выполняет команду из args (без глобальных флагов) и возвращает код выхода.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	switch name {
	case "help", "-h", "--help":
		return help(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}
	for _, a := range args[1:] {
		if a == "-h" || a == "--help" {
			fmt.Fprint(Out, FormatCommandUsage(c))
			return ExitOK
		}
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprint(Out, FormatCommandUsage(c))
		return ExitUsage
	}
	fmt.Fprintf(Out, "%s error: %s\n", name, describe(err))
	if errors.Is(err, auth.ErrNotLoggedIn) || api.IsStatus(err, http.StatusUnauthorized) {
		return ExitAuth
	}
	return ExitFailure
}

// help: gdcli help [command]
func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitOK
	}
	if c, ok := Get(strings.ToLower(args[0])); ok {
		fmt.Fprint(Out, FormatCommandUsage(c))
		return ExitOK
	}
	fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
	fmt.Fprint(Out, FormatGlobalUsage())
	return ExitUsage
}

// describe дополняет ответ сервера подсказкой по статусу.
func describe(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	var hint string
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		hint = "token missing or expired, run 'gdcli login <token>'"
	case http.StatusForbidden:
		hint = "the folder or file belongs to another user"
	case http.StatusNotFound:
		hint = "no folder or file with this uuid"
	case http.StatusConflict:
		hint = "the tree changed or the name is taken, list the folder and retry"
	case http.StatusRequestEntityTooLarge:
		hint = "file exceeds the server upload limit"
	case http.StatusServiceUnavailable:
		hint = "blob storage is temporarily unavailable, retry later"
	default:
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, hint)
}
