package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/balancer"
	"hadydotai/cheese-client/pools"
)

const defaultIntent = "sell 1000 CHEESE"

// parseFlags parses args and runs every spec group through the validator.
func parseFlags(fs *flag.FlagSet, args []string, groups ...[]FlagSpec) error {
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	var specs []FlagSpec
	for _, g := range groups {
		specs = append(specs, g...)
	}
	return validateFlags(fs, specs)
}

func runPools(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pools", flag.ContinueOnError)
	common := registerCommon(fs)
	limit := fs.Int("limit", 0, "Rows shown, 0 for all")
	if err := parseFlags(fs, args, common.specs(), []FlagSpec{{Name: "limit", Value: limit, Rules: []FlagRule{AtLeast(0)}}}); err != nil {
		return err
	}
	log, err := common.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	snapshot, err := common.market(log).fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, aggregatesTable(snapshot).Render())
	fmt.Fprintln(stdout, poolsTable(snapshot.Rows, *limit).Render())
	return nil
}

func runArb(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("arb", flag.ContinueOnError)
	common := registerCommon(fs)
	arb := registerArbFlags(fs)
	if err := parseFlags(fs, args, common.specs(), arb.specs()); err != nil {
		return err
	}
	log, err := common.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	params, err := arb.params(ctx, common, log)
	if err != nil {
		return err
	}
	m := common.market(log)
	snapshot, err := m.fetch(ctx)
	if err != nil {
		return err
	}
	r := analyze(snapshot, arbitrage.NewFinder(log.Named("search")), params, arb.pairwise, log)
	fmt.Fprint(stdout, renderReport(r, m.symbols.SymFrom, arb.limit))
	return nil
}

func runQuote(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	common := registerCommon(fs)
	var (
		poolAddr string
		slippage float64
		tui      bool
		logFile  string
	)
	fs.StringVar(&poolAddr, "pool", pools.USDCReferencePool, "Pool to quote against")
	fs.Float64Var(&slippage, "slippage", 0.5, "Slippage tolerance in percent")
	fs.BoolVar(&tui, "tui", false, "Interactive view, press c to enter a new intent")
	fs.StringVar(&logFile, "log-file", "cheese-quote.log", "Where logs go while -tui owns the terminal")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s quote [flags] [intent, e.g. %q]\n", os.Args[0], defaultIntent)
		fs.PrintDefaults()
	}
	err := parseFlags(fs, args, common.specs(), []FlagSpec{
		{Name: "pool", Value: &poolAddr, Rules: []FlagRule{NotEmpty(), ValidMint()}},
		{Name: "slippage", Value: &slippage, Rules: []FlagRule{AtLeast(0)}},
		{Name: "log-file", Value: &logFile, Rules: []FlagRule{NotEmpty()}},
	})
	if err != nil {
		return err
	}
	intent := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if intent == "" {
		intent = defaultIntent
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

	m := common.market(log)
	render := func(ctx context.Context, input string) (string, error) {
		snapshot, err := m.fetch(ctx)
		if err != nil {
			return "", err
		}
		pool, ok := snapshot.pool(poolAddr)
		if !ok {
			return "", fmt.Errorf("pool %s is not among the CHEESE pools", poolAddr)
		}
		q, qErr := quoteIntent(m.symbols, pool, input, slippage)
		if qErr != nil {
			log.Warn("quote failed", zap.String("intent", input), zap.Error(qErr))
		}
		return quoteTable(q, m.symbols.SymFrom, snapshot.Prices.Lookup, qErr, pool, input).Render(), nil
	}

	if tui {
		return newTermUI(render, true, 0).Run(ctx, intent)
	}
	out, err := render(ctx, intent)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

// quoteIntent parses one intent line and quotes it against pool.
func quoteIntent(symm *SymbolMapping, pool pools.Pool, line string, slippage float64) (*QuoteIntent, error) {
	instruction, err := parseIntent(line)
	if err != nil {
		return nil, err
	}
	mint, err := resolveIntentMint(symm, pool, instruction)
	if err != nil {
		return nil, err
	}
	return NewQuoteIntent(pool, instruction, mint, slippage)
}

// balanceOptions are the knobs of the balance command.
type balanceOptions struct {
	tradeSize float64
	targetTVL float64
	cheese    float64
	stable    float64
	source    string
	interval  time.Duration
}

func runBalance(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	common := registerCommon(fs)
	o := balanceOptions{}
	fs.Float64Var(&o.tradeSize, "trade-size", balancer.DefaultTradeSize, "CHEESE per rebalancing trade")
	fs.Float64Var(&o.targetTVL, "target-tvl", balancer.DefaultTargetTVL, "Pools below this TVL in USD get a deposit")
	fs.Float64Var(&o.cheese, "cheese", 10_000, "Simulated CHEESE in the wallet")
	fs.Float64Var(&o.stable, "stable", 0, "Simulated stable value in the wallet, USD")
	fs.StringVar(&o.source, "source", "all", "Pools to balance: meteora, raydium or all")
	fs.DurationVar(&o.interval, "interval", 0, "Re-plan on this interval, 0 plans once")
	err := parseFlags(fs, args, common.specs(), []FlagSpec{
		{Name: "trade-size", Value: &o.tradeSize, Rules: []FlagRule{Positive()}},
		{Name: "target-tvl", Value: &o.targetTVL, Rules: []FlagRule{AtLeast(0)}},
		{Name: "cheese", Value: &o.cheese, Rules: []FlagRule{AtLeast(0)}},
		{Name: "stable", Value: &o.stable, Rules: []FlagRule{AtLeast(0)}},
		{Name: "source", Value: &o.source, Rules: []FlagRule{OneOf("meteora", "raydium", "all")}},
		{Name: "interval", Value: &o.interval, Rules: []FlagRule{AtLeast(0)}},
	})
	if err != nil {
		return err
	}
	log, err := common.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	m := common.market(log)
	plan := func() error {
		snapshot, err := m.fetch(ctx)
		if err != nil {
			return err
		}
		prices := balancePrices(snapshot.Rows, o.source)
		fair := balancer.FairPrice(prices)
		start := balancer.Wallet{Cheese: o.cheese, Other: o.stable}
		actions, end := balancer.Plan(prices, fair, start, balancer.Options{TradeSize: o.tradeSize, TargetTVL: o.targetTVL})
		log.Info("balance plan", zap.Float64("fair_price", fair), zap.Int("pools", len(prices)), zap.Int("actions", len(actions)))
		fmt.Fprintln(stdout, balancerTable(actions, fair, start, end).Render())
		return nil
	}
	if o.interval <= 0 {
		return plan()
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		if err := plan(); err != nil {
			log.Error("balance plan failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// balancePrices projects the summary rows of the selected venue onto the balancer's view.
func balancePrices(rows []pools.Row, source string) []balancer.PoolPrice {
	out := make([]balancer.PoolPrice, 0, len(rows))
	for _, r := range rows {
		if source != "all" && !strings.EqualFold(r.Source.String(), source) {
			continue
		}
		out = append(out, balancer.PoolPrice{
			Address: r.Address,
			Name:    fmt.Sprintf("%s CHEESE-%s %s", r.Source, r.OtherSymbol, shortAddr(r.Address)),
			Price:   r.CheesePrice,
			FeeRate: r.FeeRate,
			TVL:     r.TVL,
		})
	}
	return out
}

func runReadme(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("readme", flag.ContinueOnError)
	common := registerCommon(fs)
	var (
		file  string
		limit int
	)
	fs.StringVar(&file, "file", "", "Markdown file to update between the cheese markers, stdout when empty")
	fs.IntVar(&limit, "limit", 0, "Pools listed, 0 for all")
	if err := parseFlags(fs, args, common.specs(), []FlagSpec{{Name: "limit", Value: &limit, Rules: []FlagRule{AtLeast(0)}}}); err != nil {
		return err
	}
	log, err := common.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	snapshot, err := common.market(log).fetch(ctx)
	if err != nil {
		return err
	}
	block := readmeBlock(snapshot, limit)
	if file == "" {
		fmt.Fprint(stdout, block)
		return nil
	}
	return updateMarkdownFile(file, block, log)
}

func updateMarkdownFile(path, block string, log *zap.Logger) error {
	doc, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated, err := spliceMarkdown(string(doc), block)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info("readme updated", zap.String("file", path))
	return nil
}
