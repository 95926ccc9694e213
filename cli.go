package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/httpapi"
	"hadydotai/cheese-client/jupiter"
	"hadydotai/cheese-client/meteora"
	"hadydotai/cheese-client/pools"
	"hadydotai/cheese-client/raydium"
)

// wellKnown symbols are seeded so the route columns never fall back to mint tails for them.
var wellKnown = map[string]string{
	pools.CheeseMint: "CHEESE",
	pools.USDCMint:   "USDC",
	pools.SOLMint:    "SOL",
}

// commonOptions are the flags every sub-command that talks to the venues accepts.
type commonOptions struct {
	debug          bool
	meteoraURL     string
	raydiumURL     string
	jupiterURL     string
	rpcURL         string
	referencePool  string
	rate           int
	timeout        time.Duration
	onchainSymbols bool
}

func registerCommon(fs *flag.FlagSet) *commonOptions {
	o := &commonOptions{}
	fs.BoolVar(&o.debug, "debug", false, "Development logging at debug level")
	fs.StringVar(&o.meteoraURL, "meteora-url", meteora.DefaultBaseURL, "Meteora API base URL")
	fs.StringVar(&o.raydiumURL, "raydium-url", raydium.DefaultBaseURL, "Raydium API base URL")
	fs.StringVar(&o.jupiterURL, "jupiter-url", jupiter.DefaultBaseURL, "Jupiter API base URL")
	fs.StringVar(&o.rpcURL, "rpc", envOr(envRPCURL, ""), "Solana RPC, used for wallet balances and on-chain symbols (env "+envRPCURL+")")
	fs.StringVar(&o.referencePool, "reference-pool", pools.USDCReferencePool, "CHEESE/USDC pool that sets the reference price")
	fs.IntVar(&o.rate, "rate", 10, "Max API requests per second, 0 for no limit")
	fs.DurationVar(&o.timeout, "timeout", 20*time.Second, "Per request timeout")
	fs.BoolVar(&o.onchainSymbols, "onchain-symbols", false, "Read token metadata over -rpc for mints the APIs don't name")
	return o
}

func (o *commonOptions) specs() []FlagSpec {
	return []FlagSpec{
		{Name: "meteora-url", Value: &o.meteoraURL, Rules: []FlagRule{NotEmpty()}},
		{Name: "raydium-url", Value: &o.raydiumURL, Rules: []FlagRule{NotEmpty()}},
		{Name: "jupiter-url", Value: &o.jupiterURL, Rules: []FlagRule{NotEmpty()}},
		{Name: "rpc", Value: &o.rpcURL},
		{Name: "reference-pool", Value: &o.referencePool, Rules: []FlagRule{NotEmpty(), ValidMint()}},
		{Name: "rate", Value: &o.rate, Rules: []FlagRule{AtLeast(0)}},
		{Name: "timeout", Value: &o.timeout, Rules: []FlagRule{Positive()}},
		{Name: "onchain-symbols", Value: &o.onchainSymbols, Rules: []FlagRule{Requires("rpc")}},
	}
}

func (o *commonOptions) logger(outputs ...string) (*zap.Logger, error) {
	return newLogger(o.debug, outputs...)
}

func (o *commonOptions) rpcClient() *rpc.Client {
	return rpc.New(o.rpcURL)
}

func (o *commonOptions) market(log *zap.Logger) *market {
	httpClient := httpapi.New(
		httpapi.WithHTTPClient(&http.Client{Timeout: o.timeout}),
		httpapi.WithRate(o.rate),
		httpapi.WithLogger(log.Named("http")),
	)
	ray := raydium.NewClient(httpClient, o.raydiumURL, log.Named("raydium"))

	var chain accountReader
	if o.onchainSymbols && o.rpcURL != "" {
		chain = o.rpcClient()
	}
	symm := NewSymbolMapping(ray, chain, log.Named("symbols"))
	for mint, sym := range wellKnown {
		symm.MapSymToMint(sym, mint)
	}

	return &market{
		venues: map[arbitrage.Source]poolSource{
			arbitrage.SourceMeteora: meteora.NewClient(httpClient, o.meteoraURL, log.Named("meteora")),
			arbitrage.SourceRaydium: ray,
		},
		prices:    jupiter.NewClient(httpClient, o.jupiterURL, log.Named("jupiter")),
		symbols:   symm,
		reference: o.referencePool,
		log:       log,
	}
}
