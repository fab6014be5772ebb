package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tracker-studio/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
