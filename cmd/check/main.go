// Package main runs one token check from the command line and prints the
// narrative, or the structured record with -json.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"solguard/internal/check"
	"solguard/internal/domain"
	"solguard/internal/reconcile"
	"solguard/internal/reporting"
	"solguard/internal/solana"
	"solguard/internal/sources"
)

func main() {
	mintFlag := flag.String("mint", "", "Token mint address (may also be given as the first positional argument)")
	asJSON := flag.Bool("json", false, "Print the structured record as JSON instead of the narrative")
	rpcEndpoint := flag.String("rpc", envOr("SOLANA_RPC_ENDPOINT", solana.DefaultEndpoint), "Solana RPC HTTP endpoint")
	birdeyeKey := flag.String("birdeye-key", os.Getenv("BIRDEYE_API_KEY"), "Birdeye API key for the holder fallback")
	quiet := flag.Bool("quiet", false, "Suppress stage progress and warnings on stderr")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall check timeout")

	flag.Parse()

	mint := *mintFlag
	if mint == "" {
		mint = flag.Arg(0)
	}
	if mint == "" {
		fmt.Fprintln(os.Stderr, "Usage: check [flags] <mint>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)
	if *quiet {
		logger = zerolog.Nop()
	}

	rpc := solana.NewClient(*rpcEndpoint)
	checker := check.New(check.Options{
		Market:          sources.NewDexScreener(),
		Holders:         sources.NewRPCHolders(rpc),
		HoldersFallback: sources.NewBirdeye(sources.WithBirdeyeKey(*birdeyeKey)),
		Metadata:        sources.NewRPCMetadata(rpc),
		Security:        sources.NewRugcheck(),
		Logger:          logger,
	})

	var onStage check.StageFunc
	if !*quiet {
		onStage = func(stage check.Stage) {
			fmt.Fprintf(os.Stderr, "%s...\n", stage)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := checker.Run(ctx, mint, onStage)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidMint):
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		case errors.Is(err, reconcile.ErrNoMarketData):
			fmt.Println(reporting.RenderFailure())
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reporting.BuildRecord(result.Snapshot, result.Assessment)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: encode record: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(reporting.RenderNarrative(result.Snapshot, result.Assessment))
}

// envOr returns the environment value or a fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
