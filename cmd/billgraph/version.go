// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/billgraph/internal/extract"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of billgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("billgraph %s (%s)\n", version, extract.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
