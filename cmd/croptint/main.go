// croptint - Dominant colour extraction for crop images
//
// croptint resolves one representative colour per crop image from a CSV
// table of (crop_name, image_url) rows.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/croptint/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
