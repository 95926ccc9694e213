package main

import (
	"strings"
	"testing"
	"time"
)

func TestRunFlagValidationsNumericRules(t *testing.T) {
	var (
		holdings = 5_000_000.0
		hops     = 4
		interval = 30 * time.Second
		reserve  = 0.3
	)
	specs := []FlagSpec{
		{Name: "holdings", Value: &holdings, Rules: []FlagRule{Positive()}},
		{Name: "max-hops", Value: &hops, Rules: []FlagRule{AtLeast(2)}},
		{Name: "interval", Value: &interval, Rules: []FlagRule{Positive()}},
		{Name: "max-reserve", Value: &reserve, Rules: []FlagRule{FractionBelowOne()}},
	}
	if err := runFlagValidations(specs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hops = 1
	if err := runFlagValidations(specs); err == nil || !strings.Contains(err.Error(), "max-hops") {
		t.Fatalf("expected max-hops to fail, got %v", err)
	}
	hops = 4
	reserve = 1
	if err := runFlagValidations(specs); err == nil || !strings.Contains(err.Error(), "max-reserve") {
		t.Fatalf("expected max-reserve to fail, got %v", err)
	}
	reserve = 0.3
	interval = 0
	if err := runFlagValidations(specs); err == nil || !strings.Contains(err.Error(), "interval") {
		t.Fatalf("expected interval to fail, got %v", err)
	}
}

func TestNumericRuleRejectsStrings(t *testing.T) {
	s := "10"
	if err := runFlagValidations([]FlagSpec{{Name: "n", Value: &s, Rules: []FlagRule{Positive()}}}); err == nil {
		t.Fatalf("expected a string flag to fail a numeric rule")
	}
}

func TestValidMint(t *testing.T) {
	good := "A3hzGcTxZNSc7744CWB2LR5Tt9VTtEaQYpP6nwripump"
	empty := ""
	bad := "not-a-key!"
	if err := runFlagValidations([]FlagSpec{
		{Name: "good", Value: &good, Rules: []FlagRule{ValidMint()}},
		{Name: "empty", Value: &empty, Rules: []FlagRule{ValidMint()}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := runFlagValidations([]FlagSpec{{Name: "bad", Value: &bad, Rules: []FlagRule{ValidMint()}}}); err == nil {
		t.Fatalf("expected invalid address to fail")
	}
}

func TestRequiresDependency(t *testing.T) {
	wallet := "A3hzGcTxZNSc7744CWB2LR5Tt9VTtEaQYpP6nwripump"
	rpcURL := ""
	specs := []FlagSpec{
		{Name: "wallet", Value: &wallet, Rules: []FlagRule{ValidMint(), Requires("rpc")}},
		{Name: "rpc", Value: &rpcURL},
	}
	if err := runFlagValidations(specs[:1]); err == nil {
		t.Fatalf("expected unregistered dependency to fail")
	}
	if err := runFlagValidations(specs); err == nil || !strings.Contains(err.Error(), "requires -rpc") {
		t.Fatalf("expected empty -rpc to fail, got %v", err)
	}
	rpcURL = "https://api.mainnet-beta.solana.com"
	if err := runFlagValidations(specs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wallet, rpcURL = "", ""
	if err := runFlagValidations(specs); err != nil {
		t.Fatalf("unset -wallet needs no -rpc: %v", err)
	}
}

func TestOneOf(t *testing.T) {
	source := "Raydium"
	specs := []FlagSpec{{Name: "source", Value: &source, Rules: []FlagRule{OneOf("meteora", "raydium", "all")}}}
	if err := runFlagValidations(specs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	source = "orca"
	if err := runFlagValidations(specs); err == nil || !strings.Contains(err.Error(), "[all, meteora, raydium]") {
		t.Fatalf("expected sorted choices in error, got %v", err)
	}
}
