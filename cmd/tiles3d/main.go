package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&inspectCmd{}, "")
	subcommands.Register(&extractCmd{}, "")
	subcommands.Register(&resolveCmd{}, "")
	subcommands.Register(&convertCmd{}, "")
	subcommands.Register(&verifyCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
