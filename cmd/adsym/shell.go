package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// runShell reads commands until quit, EOF or ctx is done.
func runShell(ctx context.Context, e *executor) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "adsym> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(e),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	source := e.client.Snapshot().Source
	if !e.client.Online() {
		source += " (offline)"
	}
	fmt.Fprintf(rl.Stdout(), "%d symbols from %s, type 'help' for commands\n", len(e.client.ListSymbols()), source)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		if _, quit := e.exec(ctx, line, rl.Stdout()); quit {
			return nil
		}
	}
}

// completer offers the commands and then the top-level symbol names.
func completer(e *executor) readline.AutoCompleter {
	var names []readline.PrefixCompleterInterface
	for _, sym := range e.client.ListSymbols() {
		names = append(names, readline.PcItem(sym.Name))
	}

	var items []readline.PrefixCompleterInterface
	for _, line := range strings.Split(strings.TrimSpace(commandHelp), "\n") {
		command := strings.Fields(line)[0]
		switch command {
		case "info", "get", "set", "raw", "verify":
			items = append(items, readline.PcItem(command, names...))
		case "shell", "serve", "snapshot", "init-config":
		default:
			items = append(items, readline.PcItem(command))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
