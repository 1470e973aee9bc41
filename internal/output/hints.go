package output

import (
	"fmt"
	"strings"
)

// CommandHints maps command names to related commands users might want to run next
var CommandHints = map[string][]string{
	"login":        {"dashboard", "accounts"},
	"register":     {"login"},
	"logout":       {"login"},
	"whoami":       {"accounts", "dashboard"},
	"accounts":     {"account <id>", "transactions <account-id>"},
	"account":      {"transactions <account-id>", "deposit", "withdraw"},
	"deposit":      {"accounts", "transactions <account-id>"},
	"withdraw":     {"accounts", "transactions <account-id>"},
	"transfer":     {"accounts", "transactions <account-id>"},
	"lookup":       {"transfer --to-number <number>"},
	"transactions": {"account <id>"},
	"dashboard":    {"accounts", "invest portfolio"},
	"invest risk":  {"invest recommendations", "invest products"},
	"invest buy":   {"invest holdings", "invest portfolio"},
	"invest sell":  {"invest holdings", "accounts"},
}

// PrintHints prints "See also" hints for a command. No-op in quiet mode or if command has no hints.
func (p *Printer) PrintHints(command string) {
	if p.quiet {
		return
	}
	hints, ok := CommandHints[command]
	if !ok || len(hints) == 0 {
		return
	}

	cmds := make([]string, len(hints))
	for i, h := range hints {
		cmds[i] = "finchctl " + h
	}
	fmt.Fprintf(p.out, "\nSee also: %s\n", strings.Join(cmds, ", "))
}
