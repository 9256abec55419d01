// Command admitcli runs the workbook passes from the command line.
//
//	admitcli [-config file] remarks  -in majors.xlsx [-out checked.xlsx]
//	admitcli [-config file] scores   -in majors.xlsx [-template general|art] [-out colleges.xlsx]
//	admitcli [-config file] match    -in scores.xlsx -plan plan.xlsx [-review] [-out matched.xlsx]
//	admitcli [-config file] convert  -plan plan.xlsx [-major m.xlsx] [-college c.xlsx] [-out out.xlsx]
//	admitcli [-config file] runs     [-pass remarks] [-limit 20] [-json]
//	admitcli version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"admitcli/pkg/contracts"
)

const binaryName = "admitcli"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// stdio bundles the streams a command reads and writes.
type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, configPath string, args []string, std stdio) error
}

var commands = map[string]command{
	"remarks": {"check and correct the major remark column", runRemarks},
	"scores":  {"reduce major scores to college scores", runScores},
	"match":   {"fill group codes from a plan export", runMatch},
	"convert": {"convert a plan export into score import templates", runConvert},
	"runs":    {"list recorded pass runs", runRuns},
}

// errUsage marks a command line error that has already been reported.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, std stdio) int {
	global := flag.NewFlagSet(binaryName, flag.ContinueOnError)
	global.SetOutput(std.err)
	configPath := global.String("config", "", "path to a YAML config file")
	global.Usage = func() { usage(std.err, global) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(std.err, global)
		return exitUsage
	}

	name := rest[0]
	if name == "version" {
		fmt.Fprintln(std.out, contracts.GetFullVersionString(binaryName))
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(std.err, "%s: unknown command %q\n\n", binaryName, name)
		usage(std.err, global)
		return exitUsage
	}

	if err := cmd.run(ctx, *configPath, rest[1:], std); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		fmt.Fprintf(std.err, "%s %s: %v\n", binaryName, name, err)
		return exitError
	}
	return exitOK
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [-config file] <command> [flags]\n\nCommands:\n", binaryName)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "  %-8s %s\n\nGlobal flags:\n", "version", "print version information")
	global.PrintDefaults()
}
