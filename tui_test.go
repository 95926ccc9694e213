package main

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
)

func key(ch rune) termbox.Event {
	if ch == ' ' {
		return termbox.Event{Type: termbox.EventKey, Key: termbox.KeySpace}
	}
	return termbox.Event{Type: termbox.EventKey, Ch: ch}
}

func TestVisibleLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := visibleLines(lines, 1, 2); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("visibleLines = %v", got)
	}
	if got := visibleLines(lines, 3, 10); !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("visibleLines tail = %v", got)
	}
	if got := visibleLines(lines, 0, 0); got != nil {
		t.Fatalf("expected nothing for zero rows, got %v", got)
	}
	if got := splitLines("x\ny\n\n"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("splitLines = %v", got)
	}
}

func TestTermUIPromptSubmitsInput(t *testing.T) {
	rendered := make(chan string, 1)
	ui := newTermUI(func(_ context.Context, input string) (string, error) {
		rendered <- input
		return "table for " + input, nil
	}, true, 0)
	defer close(ui.done)
	ui.mode = modeView
	ctx := context.Background()

	if quit := ui.handleKey(ctx, key('c')); quit || ui.mode != modePrompt {
		t.Fatalf("c should open the prompt, mode=%v quit=%v", ui.mode, quit)
	}
	for _, ch := range "sell 1 CHEESE" {
		ui.handleKey(ctx, key(ch))
	}
	ui.handleKey(ctx, termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEnter})
	if !ui.job.running || ui.mode != modeBusy {
		t.Fatalf("enter should start computing")
	}

	select {
	case got := <-rendered:
		if got != "sell 1 CHEESE" {
			t.Fatalf("rendered input %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("render was never called")
	}
	ui.finish(<-ui.results)
	if ui.mode != modeView || ui.view.input != "sell 1 CHEESE" {
		t.Fatalf("unexpected state after result: mode=%v input=%q", ui.mode, ui.view.input)
	}
	if !reflect.DeepEqual(ui.view.lines, []string{"table for sell 1 CHEESE"}) {
		t.Fatalf("body = %v", ui.view.lines)
	}
}

func TestTermUIFailedRenderKeepsPreviousBody(t *testing.T) {
	ui := newTermUI(nil, false, 0)
	ui.view.lines = []string{"old"}
	ui.finish(renderResult{err: errors.New("jupiter down")})
	if ui.status != "failed: jupiter down" {
		t.Fatalf("status = %q", ui.status)
	}
	if !reflect.DeepEqual(ui.view.lines, []string{"old"}) {
		t.Fatalf("a failed refresh must not clear the screen, got %v", ui.view.lines)
	}
}

func TestTermUIReadOnlyIgnoresChange(t *testing.T) {
	ui := newTermUI(func(context.Context, string) (string, error) { return "", nil }, false, time.Minute)
	defer close(ui.done)
	ui.mode = modeView
	if quit := ui.handleKey(context.Background(), key('c')); quit || ui.mode != modeView {
		t.Fatalf("read-only view must not open the prompt")
	}
	if quit := ui.handleKey(context.Background(), key('q')); !quit {
		t.Fatalf("q should quit")
	}
}

func TestTermUIScroll(t *testing.T) {
	ui := newTermUI(nil, false, 0)
	ui.view.lines = []string{"1", "2", "3"}
	ui.scrollBy(5)
	if ui.view.scroll != 2 {
		t.Fatalf("scroll should stop at the last line, got %d", ui.view.scroll)
	}
	ui.scrollBy(-10)
	if ui.view.scroll != 0 {
		t.Fatalf("scroll should stop at 0, got %d", ui.view.scroll)
	}
}
