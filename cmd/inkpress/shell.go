package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/inkpress/inkpress"
)

var shellCommands = []string{
	"list", "all", "show", "search", "tags", "categories",
	"recent", "reindex", "audit", "help", "quit",
}

// shell is the interactive session: readline-style input with history and
// command completion over the same operations the one-shot commands use.
type shell struct {
	engine *inkpress.Engine
	line   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".inkpress_history")
}

func runShell(engine *inkpress.Engine) int {
	s := &shell{engine: engine, line: liner.NewLiner()}
	defer s.line.Close()

	s.line.SetCtrlCAborts(true)
	s.line.SetCompleter(s.complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = s.line.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("inkpress shell. Type 'help' for commands.")

	for {
		input, err := s.line.Prompt("inkpress> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()

				break
			}

			fmt.Fprintf(os.Stderr, "inkpress: read input: %v\n", err)

			return 1
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		s.line.AppendHistory(input)

		parts := strings.Fields(input)
		command, args := strings.ToLower(parts[0]), parts[1:]

		if command == "quit" || command == "exit" || command == "q" {
			break
		}

		s.dispatch(command, args)
	}

	s.saveHistory()

	return 0
}

func (s *shell) dispatch(command string, args []string) {
	switch command {
	case "help", "?":
		fmt.Println("commands: " + strings.Join(shellCommands, ", "))
	case "list":
		cmdList(s.engine, nil)
	case "all":
		cmdList(s.engine, []string{"--all"})
	case "show":
		if len(args) != 1 {
			fmt.Println("usage: show <slug>")

			return
		}

		cmdShow(s.engine, args)
	case "search":
		if len(args) == 0 {
			fmt.Println("usage: search <query>")

			return
		}

		cmdSearch(s.engine, args)
	case "tags":
		cmdTags(s.engine)
	case "categories":
		cmdCategories(s.engine)
	case "recent":
		cmdRecent(s.engine, args)
	case "reindex":
		cmdReindex(s.engine)
	case "audit":
		cmdAudit(s.engine)
	default:
		fmt.Printf("unknown command %q (type 'help')\n", command)
	}
}

func (s *shell) complete(prefix string) []string {
	var out []string

	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(prefix)) {
			out = append(out, c)
		}
	}

	return out
}

func (s *shell) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	_, _ = s.line.WriteHistory(f)
	_ = f.Close()
}
