// Command tabreg loads a table, explores it, prepares its columns and fits a
// linear regression, narrating every stage.
//
//	tabreg run data/raw/dados_exemplo.csv
//	tabreg explore --config tabreg.yaml
//	tabreg init tabreg.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}
