package main

import (
	"context"
	"errors"
	"testing"

	solana "github.com/gagliardetto/solana-go"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/pools"
)

type stubSymbols struct {
	symbols map[string]string
	err     error
	calls   int
	asked   []string
}

func (s *stubSymbols) Symbols(_ context.Context, mints []string) (map[string]string, error) {
	s.calls++
	s.asked = append([]string(nil), mints...)
	return s.symbols, s.err
}

func TestMissingSymbolMappingErrorFormatting(t *testing.T) {
	err := &MissingSymbolMappingError{Symbol: "SOL", Mint: solana.NewWallet().PublicKey().String()}
	if err.Error() == "" {
		t.Fatalf("expected non-empty error message")
	}
	if err.MintDisplay() == "" {
		t.Fatalf("expected formatted mint display")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	raw := "  so\x00 \t"
	if got := normalizeSymbol(raw); got != "SO" {
		t.Fatalf("normalizeSymbol = %q, want SO", got)
	}
}

func TestSymbolMappingUnresolvedCandidate(t *testing.T) {
	symm := NewSymbolMapping(nil, nil, nil)
	symm.unresolved = map[string]struct{}{"mintA": {}, "mintB": {}}
	if _, ok := symm.UnresolvedCandidate(); ok {
		t.Fatalf("expected false when more than one unresolved")
	}
	candidate, ok := symm.UnresolvedCandidate("mintB", "mintC")
	if !ok || candidate != "mintB" {
		t.Fatalf("scoped candidate %q ok=%v", candidate, ok)
	}
	symm.unresolved = map[string]struct{}{"mintA": {}}
	candidate, ok = symm.UnresolvedCandidate()
	if !ok || candidate != "mintA" {
		t.Fatalf("unexpected candidate %q ok=%v", candidate, ok)
	}
}

func TestSymbolMappingMapSymToMint(t *testing.T) {
	mint := solana.NewWallet().PublicKey().String()
	symm := NewSymbolMapping(nil, nil, nil)
	symm.unresolved[mint] = struct{}{}
	symm.MapSymToMint("sol", mint)
	if _, ok := symm.unresolved[mint]; ok {
		t.Fatalf("mint should have been removed from unresolved")
	}
	if got := symm.SymFrom(mint); got != "SOL" {
		t.Fatalf("SymFrom returned %s", got)
	}
	if got, ok := symm.MaybeMintFromSym("Sol"); !ok || got != mint {
		t.Fatalf("MaybeMintFromSym mismatch")
	}
}

func TestSymbolMappingUnknownSymbol(t *testing.T) {
	symm := NewSymbolMapping(nil, nil, nil)
	mint, ok := symm.MaybeMintFromSym("FOO")
	if ok || mint != "" {
		t.Fatalf("expected empty mint when symbol missing")
	}
	if got := symm.SymFrom("So11111111111111111111111111111111111111112"); got != "1112" {
		t.Fatalf("SymFrom fallback = %q", got)
	}
}

func TestSymbolMappingResolveOrder(t *testing.T) {
	remote := &stubSymbols{symbols: map[string]string{"mintR": "ray"}}
	symm := NewSymbolMapping(remote, nil, nil)
	snapshot := []pools.Pool{
		{Address: "p1", Source: arbitrage.SourceRaydium, Name: "CHEESE-RAY", Mints: [2]string{pools.CheeseMint, "mintR"}},
		{Address: "p2", Source: arbitrage.SourceMeteora, Name: "🧀-Venue", Mints: [2]string{pools.CheeseMint, "mintV"}, Symbols: [2]string{"", "ven"}},
		{Address: "p3", Source: arbitrage.SourceMeteora, Name: "🧀-Named", Mints: [2]string{pools.CheeseMint, "mintN"}, Symbols: [2]string{"", "???"}},
		{Address: "p4", Source: arbitrage.SourceMeteora, Name: "A-B-C", Mints: [2]string{pools.CheeseMint, "mintXYZW"}},
	}
	symm.Resolve(context.Background(), snapshot)

	want := map[string]string{"mintR": "RAY", "mintV": "VEN", "mintN": "NAMED"}
	for mint, sym := range want {
		if got := symm.SymFrom(mint); got != sym {
			t.Fatalf("SymFrom(%s) = %q, want %q", mint, got, sym)
		}
	}
	// three-part names come back unchanged from the name parser, which is still a usable symbol
	if got := symm.SymFrom("mintXYZW"); got != "A-B-C" {
		t.Fatalf("SymFrom(mintXYZW) = %q", got)
	}
	if _, ok := symm.Lookup()("mintR"); !ok {
		t.Fatalf("resolved mint should be visible through Lookup")
	}

	calls := remote.calls
	symm.Resolve(context.Background(), snapshot)
	if remote.calls != calls+1 {
		t.Fatalf("expected one more remote call for the still unresolved cheese mint")
	}
	if len(remote.asked) != 1 || remote.asked[0] != pools.CheeseMint {
		t.Fatalf("second resolve should only ask about unresolved mints, asked %v", remote.asked)
	}
}

func TestSymbolMappingResolveFallsBackOnRemoteError(t *testing.T) {
	remote := &stubSymbols{err: errors.New("boom")}
	symm := NewSymbolMapping(remote, nil, nil)
	snapshot := []pools.Pool{{Address: "p", Mints: [2]string{"AAAAmint1234", "BBBBmint5678"}}}
	symm.Resolve(context.Background(), snapshot)
	if got := symm.SymFrom("AAAAmint1234"); got != "1234" {
		t.Fatalf("fallback symbol = %q", got)
	}
	if _, ok := symm.Lookup()("AAAAmint1234"); ok {
		t.Fatalf("fallback symbols must not be exposed through Lookup")
	}
	if _, ok := symm.UnresolvedCandidate("AAAAmint1234", "BBBBmint5678"); ok {
		t.Fatalf("two unresolved sides must not produce a candidate")
	}
}
