// Package main implements a ROM splitting tool that partitions a ROM image
// into configured segments and generates the linker script to reassemble it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/romsplit/internal/cli"
	"github.com/retroenv/romsplit/internal/config"
	"github.com/retroenv/romsplit/internal/pipeline"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, err := cli.ParseFlags()
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner()
			usageErr.ShowUsage()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	if !opts.Quiet {
		printBanner()
	}

	if err := pipeline.New(logger).Execute(opts); err != nil {
		logger.Fatal(err.Error())
	}
}

func printBanner() {
	fmt.Println("[ romsplit - ROM splitting tool ]")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}
