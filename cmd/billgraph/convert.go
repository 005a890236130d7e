// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/container"
	"github.com/pdiddy/billgraph/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert bill HTML to plain text",
	Long: `Convert turns acquired bill HTML into plain text under bills/text/ and
records the measure title, report title, and description in the bill's
metadata. Without arguments every file in bills/html/ is converted; bills
whose text already exists are skipped unless --force is given.

With --pdf, PDF drafts are converted through the markitdown container
image (requires docker or podman).`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("bills-dir", "bills", "base directory for bills (contains html/, text/)")
	convertCmd.Flags().Bool("force", false, "reconvert bills whose text already exists")
	convertCmd.Flags().Bool("pdf", false, "convert .pdf sources with the markitdown container image")

	bindFlag("conversion.bills_dir", convertCmd.Flags().Lookup("bills-dir"))
	bindFlag("conversion.force", convertCmd.Flags().Lookup("force"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := conversionConfig()

	converters := convert.DefaultConverters()
	if pdf, _ := cmd.Flags().GetBool("pdf"); pdf {
		rt, err := container.DetectRuntime(logger)
		if err != nil {
			return err
		}
		md, err := convert.NewMarkitdownConverter(rt)
		if err != nil {
			return err
		}
		converters[".pdf"] = md
		logger.Debug("pdf conversion enabled", zap.String("runtime", rt.Name()))
	}

	var result convert.BatchResult
	if len(args) > 0 {
		result = convert.ConvertPaths(converters, args, cfg.BillsDir, cfg.Force, os.Stdout)
	} else {
		bills, err := convert.FindBills(cfg.BillsDir)
		if err != nil {
			return err
		}
		if len(bills) == 0 {
			fmt.Println("No bills to convert.")
			return nil
		}
		result = convert.ConvertBatch(converters, bills, cfg.BillsDir, cfg.Force, os.Stdout)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d bill(s) failed conversion", result.Failed)
	}
	return nil
}
