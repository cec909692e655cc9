package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/flatdoc/flatdoc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "flatdoc: %v\n", err)
		os.Exit(1)
	}
}
