package main

import "testing"

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		0:        "0%",
		0.5:      "0.5%",
		1:        "1%",
		12.34567: "12.34567%",
	}
	for in, want := range cases {
		if got := formatPercent(in); got != want {
			t.Fatalf("formatPercent(%v) = %q, want %q", in, got, want)
		}
	}
	if got := formatFeeRate(0.0025); got != "0.25%" {
		t.Fatalf("formatFeeRate(0.0025) = %q", got)
	}
}

func TestFmtUSD(t *testing.T) {
	if got := fmtUSD(1234567.891); got != "$1,234,567.89" {
		t.Fatalf("fmtUSD large = %q", got)
	}
	if got := fmtUSD(0.000057123); got != "$5.7123e-05" {
		t.Fatalf("fmtUSD small = %q", got)
	}
	if got := fmtUSD(-1500); got != "$-1,500.00" {
		t.Fatalf("fmtUSD negative = %q", got)
	}
}

func TestFmtAmount(t *testing.T) {
	if got := fmtAmount(5_000_000); got != "5,000,000.00" {
		t.Fatalf("fmtAmount = %q", got)
	}
	if got := fmtAmount(12.5); got != "12.5000" {
		t.Fatalf("fmtAmount = %q", got)
	}
	if got := fmtAmount(0); got != "0" {
		t.Fatalf("fmtAmount = %q", got)
	}
}

func TestShortAddr(t *testing.T) {
	if got := shortAddr("A3hzGcTxZNSc7744CWB2LR5Tt9VTtEaQYpP6nwripump"); got != "A3hz…pump" {
		t.Fatalf("shortAddr = %q", got)
	}
	if got := shortAddr("short"); got != "short" {
		t.Fatalf("shortAddr = %q", got)
	}
}
