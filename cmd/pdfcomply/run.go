package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

// commandFunc runs one subcommand with its arguments.
type commandFunc func(ctx context.Context, args []string, env *Environment) error

var commands = map[string]commandFunc{
	"convert":  runConvertCmd,
	"audit":    runAuditCmd,
	"compress": runCompressCmd,
	"merge":    runMergeCmd,
	"extract":  runExtractCmd,
	"doctor":   runDoctorCmd,
}

// run dispatches args (including the program name) and returns the exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	name, rest := args[1], args[2:]
	var err error
	switch {
	case commands[name] != nil:
		err = commands[name](ctx, rest, env)
	case name == "version" || name == "--version":
		fmt.Fprintf(env.Stdout, "pdfcomply %s\n", Version)
	case name == "help" || name == "-h" || name == "--help":
		err = runHelp(rest, env)
	case isSupported(name):
		// pdfcomply file.pdf [flags] is shorthand for convert.
		err = runConvertCmd(ctx, args[1:], env)
	default:
		printUsage(env.Stderr)
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return report(err, env)
}

// report prints err with its hint and returns the matching exit code.
func report(err error, env *Environment) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, ErrNonCompliant):
		// The report already says why.
		return ExitNonCompliant
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
	return exitCodeFor(err)
}
