// edmx builds entity data models from YAML declarations and derives their
// store artifacts.
//
//	edmx inspect schema.yaml
//	edmx ddl schema.yaml --provider mysql
//	edmx gen schema.yaml --out ./internal/store --watch
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "edmx:", err)
		os.Exit(1)
	}
}
