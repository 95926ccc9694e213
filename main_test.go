package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	for name := range commands {
		if !strings.Contains(stderr.String(), name) {
			t.Fatalf("usage does not list %q:\n%s", name, stderr.String())
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"swap"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "swap"`) {
		t.Fatalf("missing unknown command message:\n%s", stderr.String())
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Commands:") {
		t.Fatalf("help went elsewhere:\n%s", stdout.String())
	}
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	cases := [][]string{
		{"arb", "-max-hops", "1"},
		{"arb", "-wallet", "not-a-key"},
		{"watch", "-interval", "0s"},
		{"balance", "-source", "orca"},
		{"pools", "-no-such-flag"},
		{"quote", "-slippage", "-1"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, &stdout, &stderr); code != 2 {
			t.Fatalf("%v: exit code = %d, want 2", args, code)
		}
		if stdout.Len() != 0 {
			t.Fatalf("%v: wrote to stdout: %s", args, stdout.String())
		}
	}
}
