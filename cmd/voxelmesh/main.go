// Package main is the voxelmesh command.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"go.viam.com/voxelmesh/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
