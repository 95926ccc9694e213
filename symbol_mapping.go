package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"hadydotai/cheese-client/pools"
)

const symbolCacheSize = 2048

// MissingSymbolMappingError is returned when the user references a symbol that we
// cannot resolve, but there is exactly one pool token lacking metadata.
type MissingSymbolMappingError struct {
	Symbol string
	Mint   string
}

func (e *MissingSymbolMappingError) Error() string {
	return fmt.Sprintf("unknown token symbol %s; map to mint %s?", e.Symbol, shortAddr(e.Mint))
}

func (e *MissingSymbolMappingError) MintDisplay() string {
	return shortAddr(e.Mint)
}

type symbolSource interface {
	Symbols(ctx context.Context, mints []string) (map[string]string, error)
}

// SymbolMapping survives across watch iterations, the lru keeps it from growing with every
// pool that ever appeared.
type SymbolMapping struct {
	mu           sync.Mutex
	mintToSymbol *lru.Cache // mint -> symbol
	symbolToMint map[string]string
	// NOTE(@hadydotai): mints that only got a fallback symbol. They stay displayable but
	// are retried on the next Resolve and never trusted when mapping a user's symbol.
	unresolved map[string]struct{}

	remote symbolSource  // Raydium mint list, may be nil
	chain  accountReader // on-chain metadata, may be nil
	log    *zap.Logger
}

func NewSymbolMapping(remote symbolSource, chain accountReader, log *zap.Logger) *SymbolMapping {
	if log == nil {
		log = zap.NewNop()
	}
	symm := &SymbolMapping{
		symbolToMint: make(map[string]string),
		unresolved:   make(map[string]struct{}),
		remote:       remote,
		chain:        chain,
		log:          log,
	}
	// Evictions happen inside Add, which is only called with mu held.
	cache, err := lru.NewWithEvict(symbolCacheSize, func(key, value interface{}) {
		mint, sym := key.(string), value.(string)
		if symm.symbolToMint[sym] == mint {
			delete(symm.symbolToMint, sym)
		}
		delete(symm.unresolved, mint)
	})
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	symm.mintToSymbol = cache
	return symm
}

func (symm *SymbolMapping) MapSymToMint(sym, mint string) {
	symm.mu.Lock()
	defer symm.mu.Unlock()
	symm.mapLocked(normalizeSymbol(sym), mint)
	delete(symm.unresolved, mint)
}

func (symm *SymbolMapping) mapLocked(sym, mint string) {
	symm.mintToSymbol.Add(mint, sym)
	symm.symbolToMint[sym] = mint
}

func (symm *SymbolMapping) MaybeSymFrom(mint string) (string, bool) {
	v, ok := symm.mintToSymbol.Get(mint)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// SymFrom falls back to the tail of the mint when nothing is known about it.
func (symm *SymbolMapping) SymFrom(mint string) string {
	if sym, ok := symm.MaybeSymFrom(mint); ok {
		return sym
	}
	return pools.ShortMint(mint)
}

func (symm *SymbolMapping) MaybeMintFromSym(sym string) (string, bool) {
	symm.mu.Lock()
	defer symm.mu.Unlock()
	mint, ok := symm.symbolToMint[normalizeSymbol(sym)]
	return mint, ok
}

// UnresolvedCandidate returns the only mint among mints that lacks a real symbol. With no
// mints given every known mint is considered.
func (symm *SymbolMapping) UnresolvedCandidate(mints ...string) (string, bool) {
	symm.mu.Lock()
	defer symm.mu.Unlock()
	res := []string{}
	if len(mints) == 0 {
		for k := range symm.unresolved {
			res = append(res, k)
		}
	} else {
		for _, m := range mints {
			if _, ok := symm.unresolved[m]; ok {
				res = append(res, m)
			}
		}
	}
	if len(res) == 1 {
		// NOTE(@hadydotai): with two unresolved sides we'd be guessing which one the user meant,
		// they'll have to copy the fallback symbol from the table instead.
		return res[0], true
	}
	return "", false
}

// Lookup exposes resolved symbols only, fallbacks are left to the caller's own rules.
func (symm *SymbolMapping) Lookup() pools.SymbolLookup {
	return func(mint string) (string, bool) {
		symm.mu.Lock()
		_, pending := symm.unresolved[mint]
		symm.mu.Unlock()
		if pending {
			return "", false
		}
		return symm.MaybeSymFrom(mint)
	}
}

// Resolve fills in symbols for every mint of the snapshot that isn't cached yet. Sources
// are tried in order: the Raydium mint list, the venue's own symbol, on-chain metadata and
// the pool name. Whatever is left gets the mint tail and is marked unresolved.
func (symm *SymbolMapping) Resolve(ctx context.Context, snapshot []pools.Pool) {
	symm.mu.Lock()
	defer symm.mu.Unlock()

	venue := make(map[string]string)
	names := make(map[string]string)
	seen := make(map[string]struct{})
	var missing []string
	for _, p := range snapshot {
		for i, mint := range p.Mints {
			if mint == "" {
				continue
			}
			if isKnownSymbol(p.Symbols[i]) {
				venue[mint] = p.Symbols[i]
			}
			if other := p.Mints[1-i]; other == pools.CheeseMint && mint != pools.CheeseMint && p.Name != "" {
				names[mint] = p.Name
			}
			if _, ok := seen[mint]; ok {
				continue
			}
			seen[mint] = struct{}{}
			_, pending := symm.unresolved[mint]
			if pending || !symm.mintToSymbol.Contains(mint) {
				missing = append(missing, mint)
			}
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)

	var remote map[string]string
	if symm.remote != nil {
		var err error
		remote, err = symm.remote.Symbols(ctx, missing)
		if err != nil {
			symm.log.Warn("symbol lookup failed, falling back", zap.Int("mints", len(missing)), zap.Error(err))
		}
	}

	fallbacks := 0
	for _, mint := range missing {
		sym := symm.firstSymbol(ctx, mint, remote[mint], venue[mint], names[mint])
		if sym == "" {
			symm.unresolved[mint] = struct{}{}
			sym = normalizeSymbol(pools.ShortMint(mint))
			fallbacks++
		} else {
			delete(symm.unresolved, mint)
		}
		symm.mapLocked(sym, mint)
	}
	symm.log.Debug("symbols resolved", zap.Int("looked_up", len(missing)), zap.Int("fallbacks", fallbacks))
}

func (symm *SymbolMapping) firstSymbol(ctx context.Context, mint, remote, venue, poolName string) string {
	if sym := normalizeSymbol(remote); isKnownSymbol(sym) {
		return sym
	}
	if sym := normalizeSymbol(venue); isKnownSymbol(sym) {
		return sym
	}
	if symm.chain != nil {
		if pk, err := solana.PublicKeyFromBase58(mint); err == nil {
			tok, err := tokenMetadata(ctx, symm.chain, pk)
			if err != nil {
				symm.log.Warn("failed to fetch metadata for mint", zap.String("mint", shortAddr(mint)), zap.Error(err))
			} else if sym := normalizeSymbol(tok.Symbol); isKnownSymbol(sym) {
				return sym
			}
		}
	}
	if poolName != "" {
		if sym := normalizeSymbol(pools.ParseOtherTokenName(poolName)); isKnownSymbol(sym) {
			return sym
		}
	}
	return ""
}

func isKnownSymbol(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "???"
}

func normalizeSymbol(raw string) string {
	sym := strings.TrimSpace(raw)
	sym = strings.Trim(sym, "\x00")
	sym = strings.ReplaceAll(sym, " ", "")
	sym = strings.ReplaceAll(sym, "\t", "")
	sym = strings.ToUpper(sym)
	return sym
}
