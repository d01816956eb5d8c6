// Command goprolog is the host around the interpreter core: an
// interactive shell, a one-shot query runner, and a syntax checker.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/sirupsen/logrus"

	"github.com/gitrdm/goprolog/internal/repl"
	"github.com/gitrdm/goprolog/pkg/prolog"
)

const version = "0.1.0"

func main() {
	c := cli.NewCLI("goprolog", version)
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"repl": func() (cli.Command, error) {
			return &replCommand{}, nil
		},
		"run": func() (cli.Command, error) {
			return &runCommand{}, nil
		},
		"check": func() (cli.Command, error) {
			return &checkCommand{}, nil
		},
	}
	// Bare invocation drops into the shell.
	if len(c.Args) == 0 {
		c.Args = []string{"repl"}
	}

	exit, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exit)
}

type replCommand struct{}

func (*replCommand) Synopsis() string { return "interactive shell" }

func (*replCommand) Help() string {
	return `Usage: goprolog repl [<file> ...]

Starts the interactive shell, loading the given source files first.
Configuration is read from .goprolog.yaml when present.`
}

func (*replCommand) Run(args []string) int {
	cfg, err := repl.LoadConfig(repl.DefaultConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	r := repl.New(cfg, os.Stdin, os.Stdout)
	if err := r.LoadFiles(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return r.Run(context.Background())
}

type runCommand struct{}

func (*runCommand) Synopsis() string { return "run one query against source files" }

func (*runCommand) Help() string {
	return `Usage: goprolog run <file> [<file> ...] <query>

Loads the source files, runs the query, and prints every solution.`
}

func (*runCommand) Run(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "run needs at least one file and a query")
		return 1
	}
	files, query := args[:len(args)-1], args[len(args)-1]

	logger := logrus.New()
	if lvl := os.Getenv("GOPROLOG_LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			logger.SetLevel(parsed)
		}
	}
	eng := prolog.NewEngine(prolog.WithLogger(logger))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := eng.Load(string(data)); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return 1
		}
	}

	sols, err := eng.QueryAll(context.Background(), query)
	if err != nil {
		if prolog.ErrHalt.Is(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(sols) == 0 {
		fmt.Println("false.")
		return 1
	}
	for _, sol := range sols {
		fmt.Println(sol)
	}
	return 0
}

type checkCommand struct{}

func (*checkCommand) Synopsis() string { return "parse source files and report errors" }

func (*checkCommand) Help() string {
	return `Usage: goprolog check <file> [<file> ...]

Parses each file and reports tokenize or parse errors without running
anything.`
}

func (*checkCommand) Run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "check needs at least one file")
		return 1
	}
	ops := prolog.NewOpTable()
	failed := false
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
			continue
		}
		if _, err := prolog.ParseProgram(string(data), ops); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if failed {
		return 1
	}
	return 0
}
