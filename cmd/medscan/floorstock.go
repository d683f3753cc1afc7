// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medscan/internal/pipeline"
)

var floorstockCmd = &cobra.Command{
	Use:   "floorstock [files...]",
	Short: "Walk tabular floor-stock pick lists and recover pick amounts",
	Long: `Floorstock reads pick-list scans, one document per file. Plain-text files
are walked line by line; .json files carrying word bounding boxes use table
geometry to assign numbers to the Pick/Max/Current columns. Pick amounts
that cannot be recovered from the stock-count invariant are printed as
VERIFY rather than guessed.`,
	RunE: runFloorstock,
}

func init() {
	rootCmd.AddCommand(floorstockCmd)
}

func runFloorstock(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(args)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)
	index, err := openIndex(cmd, cfg)
	if err != nil {
		return err
	}

	session := pipeline.NewSession(index, nil, cfg)
	out, err := session.Process(context.Background(), docs, pipeline.FloorStockMode, os.Stderr)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := writeRecords(os.Stdout, out.Records, format); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%d candidate(s), %d record(s), %d unresolved, %d need verification\n",
		out.Candidates, len(out.Records), out.Unresolved, out.NeedsVerification)
	return nil
}
