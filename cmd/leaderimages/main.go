// Package main answers leader image queries from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/config"

	leaderimagescmd "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/cmd/leaderimages"
)

func main() {
	cfg, err := leaderimagescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := leaderimagescmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
