package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nsf/termbox-go"
)

type uiMode uint8

const (
	modeBusy uiMode = iota
	modeView
	modePrompt
)

var spinnerFrames = []rune{'|', '/', '-', '\\'}

const (
	animationTick = 120 * time.Millisecond
	flashFor      = 350 * time.Millisecond
)

// renderFunc produces the screen body for an input line. The quote view feeds it intents,
// the watch dashboard ignores the input.
type renderFunc func(ctx context.Context, input string) (string, error)

type renderResult struct {
	input string
	body  string
	err   error
	at    time.Time
}

// viewState is what the body area shows.
type viewState struct {
	lines      []string
	scroll     int
	input      string // the input lines were rendered for
	updatedAt  time.Time
	flashUntil time.Time
}

type promptState struct {
	buf      []rune
	cursorOn bool
}

type jobState struct {
	running bool
	input   string
	frame   int
}

type termUI struct {
	render   renderFunc
	editable bool
	refresh  time.Duration // 0 only recomputes on demand

	mode    uiMode
	view    viewState
	prompt  promptState
	job     jobState
	status  string
	results chan renderResult
	done    chan struct{}
}

func newTermUI(render renderFunc, editable bool, refresh time.Duration) *termUI {
	return &termUI{
		render:   render,
		editable: editable,
		refresh:  refresh,
		prompt:   promptState{cursorOn: true},
		results:  make(chan renderResult),
		done:     make(chan struct{}),
	}
}

// Run blocks until the user quits or ctx is done.
func (ui *termUI) Run(ctx context.Context, initialInput string) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	defer close(ui.done)

	events := make(chan termbox.Event)
	go ui.pollEvents(events)
	// Unblocks PollEvent so the poller sees done and exits.
	defer termbox.Interrupt()

	animate := time.NewTicker(animationTick)
	defer animate.Stop()
	var refreshC <-chan time.Time
	if ui.refresh > 0 {
		t := time.NewTicker(ui.refresh)
		defer t.Stop()
		refreshC = t.C
	}

	ui.start(ctx, initialInput)
	for {
		ui.draw()
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.Type == termbox.EventError {
				return ev.Err
			}
			if ev.Type == termbox.EventKey && ui.handleKey(ctx, ev) {
				return nil
			}
		case res := <-ui.results:
			ui.finish(res)
		case <-refreshC:
			if !ui.job.running && ui.mode != modePrompt {
				ui.start(ctx, ui.view.input)
			}
		case <-animate.C:
			ui.animate()
		}
	}
}

func (ui *termUI) pollEvents(out chan<- termbox.Event) {
	for {
		ev := termbox.PollEvent()
		if ev.Type == termbox.EventInterrupt {
			return
		}
		select {
		case out <- ev:
		case <-ui.done:
			return
		}
	}
}

func (ui *termUI) start(ctx context.Context, input string) {
	ui.mode = modeBusy
	ui.job = jobState{running: true, input: input}
	ui.status = ""
	go func() {
		body, err := ui.render(ctx, input)
		select {
		case ui.results <- renderResult{input: input, body: body, err: err, at: time.Now()}:
		case <-ui.done:
		}
	}()
}

func (ui *termUI) finish(res renderResult) {
	ui.job = jobState{}
	ui.mode = modeView
	ui.view.input = res.input
	if res.err != nil {
		ui.status = fmt.Sprintf("failed: %v", res.err)
		return
	}
	ui.view.lines = splitLines(res.body)
	ui.view.updatedAt = res.at
	ui.view.flashUntil = time.Now().Add(flashFor)
	ui.scrollBy(0)
}

func (ui *termUI) animate() {
	if ui.job.running {
		ui.job.frame = (ui.job.frame + 1) % len(spinnerFrames)
	}
	ui.prompt.cursorOn = ui.mode != modePrompt || !ui.prompt.cursorOn
}

// handleKey reports whether the UI should quit.
func (ui *termUI) handleKey(ctx context.Context, ev termbox.Event) bool {
	if ev.Key == termbox.KeyCtrlC {
		return true
	}
	switch ui.mode {
	case modeBusy:
		return ev.Key == termbox.KeyEsc || ev.Ch == 'q'
	case modeView:
		return ui.viewKey(ctx, ev)
	case modePrompt:
		ui.promptKey(ctx, ev)
	}
	return false
}

func (ui *termUI) viewKey(ctx context.Context, ev termbox.Event) bool {
	switch {
	case ev.Ch == 'q' || ev.Ch == 'Q' || ev.Key == termbox.KeyEsc:
		return true
	case ev.Ch == 'r' || ev.Ch == 'R':
		ui.start(ctx, ui.view.input)
	case (ev.Ch == 'c' || ev.Ch == 'C') && ui.editable:
		ui.mode = modePrompt
		ui.prompt = promptState{cursorOn: true}
	case ev.Ch == 'j' || ev.Key == termbox.KeyArrowDown:
		ui.scrollBy(1)
	case ev.Ch == 'k' || ev.Key == termbox.KeyArrowUp:
		ui.scrollBy(-1)
	case ev.Key == termbox.KeyPgdn:
		ui.scrollBy(10)
	case ev.Key == termbox.KeyPgup:
		ui.scrollBy(-10)
	}
	return false
}

func (ui *termUI) promptKey(ctx context.Context, ev termbox.Event) {
	switch ev.Key {
	case termbox.KeyEnter:
		input := strings.TrimSpace(string(ui.prompt.buf))
		if input == "" {
			ui.status = "Intent cannot be empty."
			return
		}
		ui.prompt.buf = nil
		ui.start(ctx, input)
	case termbox.KeyEsc:
		ui.mode = modeView
		ui.prompt = promptState{cursorOn: true}
		ui.status = ""
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		if n := len(ui.prompt.buf); n > 0 {
			ui.prompt.buf = ui.prompt.buf[:n-1]
		}
	case termbox.KeySpace:
		ui.prompt.buf = append(ui.prompt.buf, ' ')
	default:
		if ev.Ch != 0 {
			ui.prompt.buf = append(ui.prompt.buf, ev.Ch)
		}
	}
}

// scrollBy keeps the offset on an existing line.
func (ui *termUI) scrollBy(n int) {
	ui.view.scroll = min(ui.view.scroll+n, len(ui.view.lines)-1)
	ui.view.scroll = max(ui.view.scroll, 0)
}

func (ui *termUI) draw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	width, height := termbox.Size()

	fg, bg := termbox.ColorDefault, termbox.ColorDefault
	if time.Now().Before(ui.view.flashUntil) {
		fg, bg = termbox.ColorWhite|termbox.AttrBold, termbox.ColorGreen
	}
	for y, line := range visibleLines(ui.view.lines, ui.view.scroll, height-2) {
		putLine(y, width, line, fg, bg)
	}
	if height >= 2 {
		putLine(height-2, width, ui.statusLine(), termbox.ColorDefault, termbox.ColorDefault)
	}
	if height >= 1 {
		putLine(height-1, width, ui.promptLine(), termbox.ColorDefault, termbox.ColorDefault)
		if ui.mode == modePrompt && width > 0 {
			ch := ' '
			if ui.prompt.cursorOn {
				ch = '_'
			}
			col := min(utf8.RuneCountInString(ui.promptLine()), width-1)
			termbox.SetCell(col, height-1, ch, termbox.ColorDefault, termbox.ColorDefault)
		}
	}
	termbox.Flush()
}

func putLine(y, width int, text string, fg, bg termbox.Attribute) {
	x := 0
	for _, ch := range text {
		if x >= width {
			return
		}
		termbox.SetCell(x, y, ch, fg, bg)
		x++
	}
}

// visibleLines is the window of lines starting at offset that fits in rows.
func visibleLines(lines []string, offset, rows int) []string {
	if rows <= 0 || offset >= len(lines) {
		return nil
	}
	offset = max(offset, 0)
	return lines[offset:min(offset+rows, len(lines))]
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (ui *termUI) keysHelp() string {
	if ui.editable {
		return "q quit | r refresh | c change | ↑/↓ scroll"
	}
	return "q quit | r refresh | ↑/↓ scroll"
}

func (ui *termUI) statusLine() string {
	switch {
	case ui.job.running && ui.job.input == "":
		return fmt.Sprintf("%c refreshing", spinnerFrames[ui.job.frame])
	case ui.job.running:
		return fmt.Sprintf("%c computing %q", spinnerFrames[ui.job.frame], ui.job.input)
	case ui.status != "":
		return ui.status
	case ui.mode == modePrompt:
		return "Enter a new intent and press Enter, Esc to cancel."
	case !ui.view.updatedAt.IsZero():
		return fmt.Sprintf("updated %s | %s", ui.view.updatedAt.Format("15:04:05"), ui.keysHelp())
	}
	return ui.keysHelp()
}

func (ui *termUI) promptLine() string {
	switch {
	case ui.mode == modePrompt:
		return "> " + string(ui.prompt.buf)
	case ui.job.running:
		return "> ..."
	case ui.view.input != "":
		return "> current intent: " + ui.view.input
	case ui.editable:
		return "> press c to enter a new intent"
	}
	return ">"
}
