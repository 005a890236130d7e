// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/billgraph/internal/acquire"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [identifiers...]",
	Short: "Download bill HTML by bill identifier or URL",
	Long: `Acquire resolves bill identifiers (HB767, SB2182_SD1, "HB 767 HD2") to
the legislature's session archive, or takes direct URLs, downloads the HTML
to bills/html/, and writes a metadata record to bills/metadata/. Bills
already on disk are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	acquireCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	acquireCmd.Flags().Int("session", 0, "legislative session year (default current year)")
	acquireCmd.Flags().String("bills-dir", "bills", "base directory for bills")

	bindFlag("acquisition.timeout", acquireCmd.Flags().Lookup("timeout"))
	bindFlag("acquisition.download_delay", acquireCmd.Flags().Lookup("delay"))
	bindFlag("acquisition.session", acquireCmd.Flags().Lookup("session"))
	bindFlag("acquisition.bills_dir", acquireCmd.Flags().Lookup("bills-dir"))

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	cfg := acquisitionConfig()
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := acquire.New(client, cfg, logger).AcquireBatch(cmd.Context(), args, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d bill(s) failed acquisition", result.Failed)
	}
	return nil
}
