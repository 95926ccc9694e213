package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
)

// watcher runs one fetch and search per tick and records the outcome in metrics.
type watcher struct {
	market   *market
	finder   *arbitrage.Finder
	params   arbitrage.Params
	pairwise bool
	metrics  *watchMetrics
	log      *zap.Logger
}

func (w *watcher) tick(ctx context.Context) (*arbReport, error) {
	snapshot, err := w.market.fetch(ctx)
	if err != nil {
		stage := "unknown"
		var se *stageError
		if errors.As(err, &se) {
			stage = se.stage
		}
		w.metrics.failed(stage)
		w.log.Error("poll failed", zap.String("stage", stage), zap.Error(err))
		return nil, err
	}
	r := analyze(snapshot, w.finder, w.params, w.pairwise, w.log)
	w.metrics.observe(r)
	return r, nil
}

// loop prints a report every interval until ctx is done. A failed tick is already counted
// and logged, the next one starts from scratch.
func (w *watcher) loop(ctx context.Context, out io.Writer, interval time.Duration, symbol func(string) string, limit int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if r, err := w.tick(ctx); err == nil {
			fmt.Fprintln(out, renderReport(r, symbol, limit))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runWatch(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	common := registerCommon(fs)
	arb := registerArbFlags(fs)
	var (
		interval    time.Duration
		tui         bool
		metricsAddr string
		logFile     string
	)
	fs.DurationVar(&interval, "interval", 30*time.Second, "Time between polls")
	fs.BoolVar(&tui, "tui", false, "Full screen dashboard instead of printing every poll")
	fs.StringVar(&metricsAddr, "metrics-addr", envOr(envMetricsAddr, ""), "Serve Prometheus metrics on this address (env "+envMetricsAddr+")")
	fs.StringVar(&logFile, "log-file", "cheese-watch.log", "Where logs go while -tui owns the terminal")
	err := parseFlags(fs, args, common.specs(), arb.specs(), []FlagSpec{
		{Name: "interval", Value: &interval, Rules: []FlagRule{Positive()}},
		{Name: "log-file", Value: &logFile, Rules: []FlagRule{NotEmpty()}},
	})
	if err != nil {
		return err
	}

	var outputs []string
	if tui {
		outputs = []string{logFile}
	}
	log, err := common.logger(outputs...)
	if err != nil {
		return err
	}
	defer log.Sync()

	params, err := arb.params(ctx, common, log)
	if err != nil {
		return err
	}
	m := common.market(log)
	w := &watcher{
		market:   m,
		finder:   arbitrage.NewFinder(log.Named("search")),
		params:   params,
		pairwise: arb.pairwise,
		metrics:  newWatchMetrics(),
		log:      log,
	}
	if metricsAddr != "" {
		w.metrics.serve(ctx, metricsAddr, log)
	}

	if !tui {
		return w.loop(ctx, stdout, interval, m.symbols.SymFrom, arb.limit)
	}
	render := func(ctx context.Context, _ string) (string, error) {
		r, err := w.tick(ctx)
		if err != nil {
			return "", err
		}
		return renderReport(r, m.symbols.SymFrom, arb.limit), nil
	}
	return newTermUI(render, false, interval).Run(ctx, "")
}
