//go:build !gendocs

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// main runs the CLI
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		_ = rootCmd.Help()
		stop()
		os.Exit(output.ExitGeneralError.Int())
	}
}
