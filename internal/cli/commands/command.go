package commands

import (
	"GophDrive/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage возвращается командой при неверных аргументах: диспетчер печатает её usage.
var ErrUsage = errors.New("usage")

// Command — подкоманда gdcli.
type Command interface {
	// Name — имя, которое набирает пользователь, например "ls".
	Name() string
	// Description — одна строка для справки.
	Description() string
	// Usage — синтаксис без имени программы, например "ls <folder-uuid>".
	Usage() string
	// Run выполняет команду; args — аргументы после имени команды.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// Group — раздел справки, в котором показывается команда.
type Group int

const (
	GroupAccount Group = iota
	GroupFolders
	GroupFiles
	GroupNodes
	GroupStorage
)

var groupTitles = [...]string{
	GroupAccount: "Account",
	GroupFolders: "Folders",
	GroupFiles:   "Files",
	GroupNodes:   "Folders and files",
	GroupStorage: "Blob storage",
}

func (g Group) String() string {
	if g < 0 || int(g) >= len(groupTitles) {
		return "Other"
	}
	return groupTitles[g]
}

type entry struct {
	cmd   Command
	group Group
	seq   int
}

var registry = map[string]entry{}

// Out — writer для вывода CLI; тесты подменяют его буфером.
var Out io.Writer = os.Stdout

// Register добавляет команду в раздел group. Вызывается из init() файла команды;
// повторная регистрация имени заменяет команду, но сохраняет её место в справке.
func Register(group Group, cmd Command) {
	seq := len(registry)
	if prev, ok := registry[cmd.Name()]; ok {
		seq = prev.seq
	}
	registry[cmd.Name()] = entry{cmd: cmd, group: group, seq: seq}
}

func Get(name string) (Command, bool) {
	e, ok := registry[name]
	return e.cmd, ok
}

// List возвращает команды по разделам, внутри раздела в порядке регистрации.
func List() []Command {
	entries := make([]entry, 0, len(registry))
	for _, e := range registry {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].group != entries[j].group {
			return entries[i].group < entries[j].group
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]Command, len(entries))
	for i, e := range entries {
		out[i] = e.cmd
	}
	return out
}

// FormatGlobalUsage собирает общую справку с командами по разделам.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("GophDrive CLI: folders and files of your drive\n\n")
	b.WriteString("Usage:\n  gdcli [--base-url <host:port>|URL] [--token-file <path>] <command> [args]\n")
	current := Group(-1)
	for _, c := range List() {
		if g := registry[c.Name()].group; g != current {
			fmt.Fprintf(&b, "\n%s:\n", g)
			current = g
		}
		fmt.Fprintf(&b, "  %-34s %s\n", c.Usage(), c.Description())
	}
	b.WriteString("\nFolders and files are addressed by uuid, as printed by roots, ls and info.\n")
	b.WriteString("Run 'gdcli help <command>' for one command.\n")
	return b.String()
}

// FormatCommandUsage — справка одной команды.
func FormatCommandUsage(c Command) string {
	return fmt.Sprintf("Usage: gdcli %s\n  %s\n", c.Usage(), c.Description())
}
