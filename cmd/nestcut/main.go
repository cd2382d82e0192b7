// NestCut - irregular part nesting for CNC sheet cutting
//
// Places polygon parts with holes onto rectangular sheets and exports
// G-code, PDF drawings, labels, Excel reports and a 3D HTML preview.
//
// Build:
//   go build -o nestcut ./cmd/nestcut
//
// Example:
//   nestcut nest parts.dxf --sheet-width 2440 --sheet-height 1220 --pdf --html

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/NestCut/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(version, commit, date)
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
