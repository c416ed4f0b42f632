// Package main is the entry point for the receiptctl CLI.
package main

import (
	"os"

	"github.com/warp/receipt-engine/cmd/receiptctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
