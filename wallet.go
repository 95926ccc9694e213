package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type balanceReader interface {
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
}

type holdings struct {
	Cheese float64
	SOL    float64
}

func humanAmount(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Rat).SetFrac(raw, scale).Float64()
	return f
}

func tokenBalance(ctx context.Context, client balanceReader, account solana.PublicKey) (float64, error) {
	resp, err := client.GetTokenAccountBalance(ctx, account, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("rpc call getTokenAccountBalance failed: %w", err)
	}
	if resp == nil || resp.Value == nil {
		return 0, errors.New("rpc call getTokenAccountBalance failed, returned no balance")
	}
	amount, ok := new(big.Int).SetString(resp.Value.Amount, 10)
	if !ok {
		return 0, fmt.Errorf("balance is an invalid amount %q", resp.Value.Amount)
	}
	return humanAmount(amount, resp.Value.Decimals), nil
}

// walletHoldings reads the CHEESE associated token account and the SOL balance of owner in
// parallel. Each goroutine writes only its own slot.
func walletHoldings(ctx context.Context, client balanceReader, owner, cheeseMint solana.PublicKey) (holdings, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, cheeseMint)
	if err != nil {
		return holdings{}, fmt.Errorf("deriving associated token account: %w", err)
	}

	var (
		values [2]float64
		errs   [2]error
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		values[0], errs[0] = tokenBalance(ctx, client, ata)
	}()
	go func() {
		defer wg.Done()
		resp, err := client.GetBalance(ctx, owner, rpc.CommitmentFinalized)
		if err != nil {
			errs[1] = fmt.Errorf("rpc call getBalance failed: %w", err)
			return
		}
		if resp == nil {
			errs[1] = errors.New("rpc call getBalance failed, returning empty response")
			return
		}
		values[1] = humanAmount(new(big.Int).SetUint64(resp.Value), 9)
	}()
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return holdings{}, err
	}
	return holdings{Cheese: values[0], SOL: values[1]}, nil
}
