package main

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type fakeBalances struct {
	tokens    map[solana.PublicKey]*rpc.UiTokenAmount
	lamports  uint64
	tokenErr  error
	balanceOK bool
}

func (f *fakeBalances) GetTokenAccountBalance(_ context.Context, account solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	v, ok := f.tokens[account]
	if !ok {
		return nil, errors.New("could not find account")
	}
	return &rpc.GetTokenAccountBalanceResult{Value: v}, nil
}

func (f *fakeBalances) GetBalance(_ context.Context, _ solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if !f.balanceOK {
		return nil, nil
	}
	return &rpc.GetBalanceResult{Value: f.lamports}, nil
}

func TestHumanAmount(t *testing.T) {
	if got := humanAmount(big.NewInt(1_234_567), 6); got != 1.234567 {
		t.Fatalf("humanAmount = %v", got)
	}
	if got := humanAmount(nil, 6); got != 0 {
		t.Fatalf("humanAmount(nil) = %v", got)
	}
}

func TestWalletHoldings(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.MustPublicKeyFromBase58("A3hzGcTxZNSc7744CWB2LR5Tt9VTtEaQYpP6nwripump")
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("ata: %v", err)
	}
	client := &fakeBalances{
		tokens:    map[solana.PublicKey]*rpc.UiTokenAmount{ata: {Amount: "5000000000000", Decimals: 6}},
		lamports:  2_500_000_000,
		balanceOK: true,
	}
	h, err := walletHoldings(context.Background(), client, owner, mint)
	if err != nil {
		t.Fatalf("walletHoldings: %v", err)
	}
	if h.Cheese != 5_000_000 || h.SOL != 2.5 {
		t.Fatalf("unexpected holdings %+v", h)
	}
}

func TestWalletHoldingsErrors(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	client := &fakeBalances{tokenErr: errors.New("rate limited")}
	_, err := walletHoldings(context.Background(), client, owner, mint)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "rate limited") || !strings.Contains(err.Error(), "getBalance") {
		t.Fatalf("expected both failures to be reported, got %v", err)
	}

	ata, _, _ := solana.FindAssociatedTokenAddress(owner, mint)
	client = &fakeBalances{tokens: map[solana.PublicKey]*rpc.UiTokenAmount{ata: {Amount: "12x", Decimals: 6}}, balanceOK: true}
	if _, err := walletHoldings(context.Background(), client, owner, mint); err == nil || !strings.Contains(err.Error(), "invalid amount") {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}
