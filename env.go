package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	envRPCURL      = "CHEESE_RPC_URL"
	envWallet      = "CHEESE_WALLET"
	envMetricsAddr = "CHEESE_METRICS_ADDR"
)

// loadEnv reads .env from the working directory if there is one. A missing file is fine,
// a malformed one is not.
func loadEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
