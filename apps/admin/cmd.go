package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	statSvc statistic.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  summary -user ID          - print the user's statistics summary")
	fmt.Fprintln(cli.out, "  progress -user ID         - print the user's progress")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	summaryCmd := flag.NewFlagSet("summary", flag.ContinueOnError)
	summaryCmd.SetOutput(cli.out)
	summaryUser := summaryCmd.String("user", "", "The user's ID.")

	progressCmd := flag.NewFlagSet("progress", flag.ContinueOnError)
	progressCmd.SetOutput(cli.out)
	progressUser := progressCmd.String("user", "", "The user's ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "summary":
		if err := summaryCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *summaryUser == "" {
			summaryCmd.Usage()
			return errHelp
		}
		sum, err := cli.statSvc.Summary(context.Background(), *summaryUser)
		if err != nil {
			return err
		}
		return cli.print(sum)
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressUser == "" {
			progressCmd.Usage()
			return errHelp
		}
		prog, err := cli.statSvc.Progress(context.Background(), *progressUser)
		if err != nil {
			return err
		}
		return cli.print(prog)
	default:
		cli.printUsage()
		return errHelp
	}
}

// print writes v as JSON, indented when stdout is a terminal.
func (cli *commandLine) print(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	if isTerminalFunc(int(os.Stdout.Fd())) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
