// Command absl runs table accessor operations against the configured
// database and prints the results as JSON.
//
// Configuration comes from ABSL_* environment variables (or a .env file):
//
//	ABSL_DATABASE__DRIVER=sqlite ABSL_DATABASE__PATH=absl.db absl migrate
//	absl user add alice alice@example.com --password 'correct horse'
//	absl --table orders=id:id,user_id,total page orders 2 --size 20
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

	opts := &rootOptions{}
	err := newRootCommand(opts).ExecuteContext(ctx)
	if closeErr := opts.close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", closeErr)
	}
	stop()

	if err != nil {
		os.Exit(1)
	}
}
