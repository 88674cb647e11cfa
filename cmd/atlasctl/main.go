// Command atlasctl manages the invoice ledger from the shell, against the same
// backend the server uses.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&importCmd{}, "invoices")
	commander.Register(&deleteCmd{}, "invoices")
	commander.Register(&clearCmd{}, "invoices")

	commander.Register(&monthsCmd{}, "reports")
	commander.Register(&showCmd{}, "reports")
	commander.Register(&dashboardCmd{}, "reports")
	commander.Register(&searchCmd{}, "reports")
	commander.Register(&exportCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
