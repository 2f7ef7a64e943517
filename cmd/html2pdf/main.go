package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	verbose := slices.Contains(args, "-v") || slices.Contains(args, "--verbose")

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "convert":
		err = convertCommand(ctx, rest, env)
	case "serve":
		err = serveCommand(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "html2pdf %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		// "html2pdf page.html" is shorthand for "html2pdf convert page.html".
		if !looksLikeInput(cmd) {
			fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
			printUsage(env.Stderr)
			return ExitUsage
		}
		err = convertCommand(ctx, args[1:], env)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func convertCommand(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	return runConvert(ctx, positional, flags, env)
}

func serveCommand(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	return runServe(ctx, flags, env)
}

// looksLikeInput reports whether arg names a convertible file or a directory.
func looksLikeInput(arg string) bool {
	if isSupportedInput(arg) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}
