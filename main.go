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
)

type command struct {
	summary string
	run     func(ctx context.Context, args []string, stdout io.Writer) error
}

var commands = map[string]command{
	"pools":   {"CHEESE pools across Meteora and Raydium with prices and TVL", runPools},
	"arb":     {"Search the pool graph once for profitable CHEESE cycles", runArb},
	"watch":   {"Poll and search on an interval, with metrics and an optional dashboard", runWatch},
	"quote":   {"Quote a swap intent such as \"sell 1000 CHEESE\" against one pool", runQuote},
	"balance": {"Plan the trades and deposits that pull every pool to the fair price", runBalance},
	"readme":  {"Render the pool tables as markdown, optionally into a file", runReadme},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", os.Args[0])
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nRun %s <command> -h for the flags of a command.\n", os.Args[0])
}

// run dispatches args to a command and maps the outcome to an exit code: 0 on success,
// 2 for usage problems and 1 for everything else.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	name := args[0]
	if name == "-h" || name == "-help" || name == "--help" || name == "help" {
		usage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return 2
	}

	err := cmd.run(ctx, args[1:], stdout)
	var uerr usageError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &uerr):
		return 2
	case errors.Is(err, context.Canceled):
		return 0
	}
	fmt.Fprintf(stderr, "%s: %v\n", name, err)
	return 1
}

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
