package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/balancer"
	"hadydotai/cheese-client/pools"
)

const (
	readmeStartMarker = "<!-- cheese:start -->"
	readmeEndMarker   = "<!-- cheese:end -->"
)

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle("%s", title)
	t.Style().Size.WidthMax = 160
	return t
}

func alignRight(t table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, c := range columns {
		configs = append(configs, table.ColumnConfig{Number: c, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
}

func aggregatesTable(s *marketSnapshot) table.Writer {
	t := newTable("CHEESE market")
	t.AppendRow(table.Row{"CHEESE price", fmtUSD(s.Reference.Price)})
	t.AppendRow(table.Row{"Reference pool", s.Reference.Pool})
	t.AppendRow(table.Row{"Pools", s.Aggregates.Pools})
	t.AppendRow(table.Row{"CHEESE in pools", fmtAmount(s.Aggregates.TotalCheese)})
	t.AppendRow(table.Row{"Total liquidity", fmtUSD(s.Aggregates.TotalLiquidityUSD)})
	t.AppendRow(table.Row{"24h volume", fmtUSD(s.Aggregates.TotalVolume24h)})
	t.SetCaption("fetched %s", s.FetchedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return t
}

// poolsTable lists rows in the order given, limit <= 0 shows all of them.
func poolsTable(rows []pools.Row, limit int) table.Writer {
	t := newTable("CHEESE pools")
	t.AppendHeader(table.Row{"Venue", "Pool", "Pair", "CHEESE", "Other", "Other price", "TVL", "24h volume", "Fee", "Implied price"})
	alignRight(t, 4, 5, 6, 7, 8, 9, 10)
	for i, r := range rows {
		if limit > 0 && i >= limit {
			t.SetCaption("%d more pools not shown", len(rows)-limit)
			break
		}
		otherPrice := "n/a"
		if r.OtherPriced {
			otherPrice = fmtUSD(r.OtherPrice)
		}
		t.AppendRow(table.Row{
			r.Source,
			shortAddr(r.Address),
			"CHEESE/" + r.OtherSymbol,
			fmtAmount(r.CheeseQty),
			fmtAmount(r.OtherQty),
			otherPrice,
			fmtUSD(r.TVL),
			fmtUSD(r.Volume24h),
			formatFeeRate(r.FeeRate),
			fmtUSD(r.CheesePrice),
		})
	}
	return t
}

func routeString(c arbitrage.ArbitrageCycle, symbol func(string) string) string {
	tokens := c.Tokens()
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = symbol(tok)
	}
	return strings.Join(parts, " → ")
}

func cyclesTable(cycles []arbitrage.ArbitrageCycle, symbol func(string) string, limit int) table.Writer {
	t := newTable("Arbitrage cycles")
	t.AppendHeader(table.Row{"#", "Route", "Hops", "In", "Out", "Gross", "Pool fees", "Network", "Net profit", "ROI"})
	alignRight(t, 3, 4, 5, 6, 7, 8, 9, 10)
	if len(cycles) == 0 {
		t.SetCaption("no profitable cycles")
		return t
	}
	for i, c := range cycles {
		if limit > 0 && i >= limit {
			t.SetCaption("%d more cycles not shown", len(cycles)-limit)
			break
		}
		t.AppendRow(table.Row{
			i + 1,
			routeString(c, symbol),
			c.Hops(),
			fmtAmount(c.InitialAmount),
			fmtAmount(c.FinalAmount),
			fmtUSD(c.GrossProfit),
			fmtUSD(c.PoolFees),
			fmtUSD(c.NetworkFees),
			fmtUSD(c.NetProfit),
			formatPercent(c.ROI() * 100),
		})
	}
	return t
}

// cycleStepsTable breaks a single cycle down hop by hop.
func cycleStepsTable(c arbitrage.ArbitrageCycle, symbol func(string) string) table.Writer {
	t := newTable(routeString(c, symbol))
	t.AppendHeader(table.Row{"Hop", "Venue", "Pool", "Sell", "Amount in", "Buy", "Expected out", "Fee"})
	alignRight(t, 5, 7, 8)
	for i, s := range c.Steps {
		t.AppendRow(table.Row{
			i + 1,
			s.Source,
			shortAddr(s.PoolAddress),
			symbol(s.SellToken),
			fmtAmount(s.AmountIn),
			symbol(s.BuyToken),
			fmtAmount(s.ExpectedOut),
			formatFeeRate(s.FeePercent),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Net profit", fmtUSD(c.NetProfit), ""})
	return t
}

func pairwiseTable(ops []pools.Opportunity) table.Writer {
	t := newTable("Pairwise opportunities vs reference pool")
	t.AppendHeader(table.Row{"Pool", "Pair", "Implied", "Gap", "Direction", "Size", "Fees", "Gross", "Net"})
	alignRight(t, 3, 4, 6, 7, 8, 9)
	if len(ops) == 0 {
		t.SetCaption("no pool is far enough from the reference price")
		return t
	}
	for _, o := range ops {
		t.AppendRow(table.Row{
			shortAddr(o.Row.Address),
			"CHEESE/" + o.Row.OtherSymbol,
			fmtUSD(o.ImpliedPrice),
			formatPercent(o.GapPct),
			o.Direction,
			fmtAmount(o.TradeSize),
			fmtUSD(o.TotalFees),
			fmtUSD(o.GrossProfit),
			fmtUSD(o.NetProfit),
		})
	}
	return t
}

func balancerTable(actions []balancer.Action, fair float64, start, end balancer.Wallet) table.Writer {
	t := newTable(fmt.Sprintf("Rebalancing plan, fair price %s", fmtUSD(fair)))
	t.AppendHeader(table.Row{"Action", "Pool", "Price", "Diff", "Fee", "TVL", "CHEESE", "Stable", "Note"})
	alignRight(t, 3, 4, 5, 6, 7, 8)
	for _, a := range actions {
		kind := a.Kind.String()
		if !a.Executed && a.Kind != balancer.Skip {
			kind += " (skipped)"
		}
		t.AppendRow(table.Row{
			kind,
			a.Pool.Name,
			fmtUSD(a.Pool.Price),
			formatPercent(a.DiffPct),
			formatFeeRate(a.Pool.FeeRate),
			fmtUSD(a.Pool.TVL),
			fmtAmount(a.Cheese),
			fmtUSD(a.Other),
			a.Reason,
		})
	}
	t.AppendFooter(table.Row{"Wallet", "", "", "", "", "",
		fmt.Sprintf("%s → %s", fmtAmount(start.Cheese), fmtAmount(end.Cheese)),
		fmt.Sprintf("%s → %s", fmtUSD(start.Other), fmtUSD(end.Other)), ""})
	return t
}

// quoteTable lays the pool out per token, the same way the single pool view always did.
func quoteTable(intent *QuoteIntent, symbol func(string) string, prices arbitrage.PriceLookup, intentErr error, pool pools.Pool, instruction string) table.Writer {
	t := newTable(pool.Address)
	t.SetCaption("%s pool %s", pool.Source, pool.Name)
	t.AppendHeader(table.Row{"", "Token 0", "Token 1"})
	t.AppendRow(table.Row{"Symbol", symbol(pool.Mints[0]), symbol(pool.Mints[1])})
	t.AppendRow(table.Row{"Mint", shortAddr(pool.Mints[0]), shortAddr(pool.Mints[1])})
	t.AppendRow(table.Row{"Reserves", fmtAmount(pool.Amounts[0]), fmtAmount(pool.Amounts[1])})
	priceRow := table.Row{"Price", "n/a", "n/a"}
	for i, m := range pool.Mints {
		if p, ok := prices(m); ok {
			priceRow[i+1] = fmtUSD(p)
		}
	}
	t.AppendRow(priceRow)
	t.AppendSeparator()
	feeRow := formatFeeRate(pool.FeeRate)
	t.AppendRow(table.Row{"Trade fee", feeRow, feeRow}, table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})

	if intentErr != nil || intent == nil {
		msg := fmt.Sprintf("%s failed: %v", instruction, intentErr)
		t.AppendSeparator()
		t.AppendRow(table.Row{"Intent", msg, msg}, table.RowConfig{AutoMerge: true})
		return t
	}
	slippageRow := formatPercent(intent.SlippagePct)
	t.AppendRow(table.Row{"Slippage", slippageRow, slippageRow}, table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	t.AppendSeparator()

	targetCell := pool.Side(intent.TargetMint) + 1
	counterCell := 3 - targetCell
	counterSymbol := symbol(intent.CounterMint)
	row := table.Row{"Intent", "", ""}
	row[targetCell] = intent.String()
	switch intent.SwapKind {
	case SwapKindBaseInput:
		row[counterCell] = fmt.Sprintf("receiving %s %s", fmtAmount(intent.QuoteAmount), counterSymbol)
	case SwapKindBaseOutput:
		row[counterCell] = fmt.Sprintf("paying %s %s", fmtAmount(intent.QuoteAmount), counterSymbol)
	}
	t.AppendRow(row)

	bound := table.Row{"", "", ""}
	switch intent.SwapKind {
	case SwapKindBaseInput:
		bound[0] = "Min received"
		bound[counterCell] = fmtAmount(intent.MinAmountOut)
	case SwapKindBaseOutput:
		bound[0] = "Max paid"
		bound[counterCell] = fmtAmount(intent.MaxAmountIn)
	}
	t.AppendRow(bound)
	feeCell := table.Row{"Fee paid", "", ""}
	feeCell[pool.Side(intent.TokenIn)+1] = fmtAmount(intent.Quote.FeeAmount)
	t.AppendRow(feeCell)
	impact := formatPercent(intent.Quote.PriceImpact * 100)
	t.AppendRow(table.Row{"Price impact", impact, impact}, table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	return t
}

// renderReport is the arb/watch output: a one line market header followed by the tables.
func renderReport(r *arbReport, symbol func(string) string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CHEESE %s | %d pools | %d edges | %d states searched in %s\n",
		fmtUSD(r.snapshot.Reference.Price), len(r.snapshot.Pools), r.stats.Edges, r.stats.States, r.stats.Duration.Round(time.Microsecond))
	b.WriteString(cyclesTable(r.cycles, symbol, limit).Render())
	b.WriteString("\n")
	if len(r.cycles) > 0 {
		b.WriteString(cycleStepsTable(r.cycles[0], symbol).Render())
		b.WriteString("\n")
	}
	if r.withPairwise {
		b.WriteString(pairwiseTable(r.pairwise).Render())
		b.WriteString("\n")
	}
	return b.String()
}

// spliceMarkdown replaces whatever sits between the cheese markers in doc with block. A doc
// without markers gets the block appended.
func spliceMarkdown(doc, block string) (string, error) {
	wrapped := readmeStartMarker + "\n" + strings.TrimRight(block, "\n") + "\n" + readmeEndMarker
	start := strings.Index(doc, readmeStartMarker)
	end := strings.Index(doc, readmeEndMarker)
	switch {
	case start < 0 && end < 0:
		if doc != "" && !strings.HasSuffix(doc, "\n") {
			doc += "\n"
		}
		if doc != "" {
			doc += "\n"
		}
		return doc + wrapped + "\n", nil
	case start < 0 || end < 0:
		return "", errors.New("readme has only one of the cheese markers")
	case end < start:
		return "", errors.New("readme cheese end marker comes before the start marker")
	}
	return doc[:start] + wrapped + doc[end+len(readmeEndMarker):], nil
}

func readmeBlock(s *marketSnapshot, limit int) string {
	var b strings.Builder
	b.WriteString(aggregatesTable(s).RenderMarkdown())
	b.WriteString("\n\n")
	b.WriteString(poolsTable(s.Rows, limit).RenderMarkdown())
	b.WriteString("\n")
	return b.String()
}
