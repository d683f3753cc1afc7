// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medscan/internal/catalog"
	"github.com/pdiddy/medscan/internal/ocr"
	"github.com/pdiddy/medscan/internal/parse"
	"github.com/pdiddy/medscan/internal/pipeline"
	"github.com/pdiddy/medscan/internal/secrets"
	"github.com/pdiddy/medscan/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse patient labels and cart-fill sheets into medication records",
	Long: `Parse reads OCR text files, label photographs (extracted through a
containerized OCR engine), or stdin when no files are given, recovers
medication candidates through the pattern cascade with the LLM oracle as
fallback, resolves storage locations against the reference catalog, and
prints the aggregated records.`,
	RunE: runParse,
}

func init() {
	for _, cmd := range []*cobra.Command{parseCmd, floorstockCmd} {
		cmd.Flags().String("format", "table", "output format: table, json, or yaml")
		cmd.Flags().String("catalog-db", "", "catalog database path (default: catalog/medscan.db)")
	}
	parseCmd.Flags().Bool("oracle", true, "consult the LLM oracle for unmatched text")
	parseCmd.Flags().Float64("min-confidence", 0, "drop candidates scoring below this confidence")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(args)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)
	index, err := openIndex(cmd, cfg)
	if err != nil {
		return err
	}

	var oracle parse.Oracle
	if useOracle, _ := cmd.Flags().GetBool("oracle"); useOracle {
		oracle = buildOracle(cfg.Parse.Oracle)
	}

	session := pipeline.NewSession(index, oracle, cfg)
	out, err := session.Process(context.Background(), docs, pipeline.LabelMode, os.Stderr)
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

// --- shared helpers ---

// readDocuments loads each file as one OCR document. A .json file is decoded
// as a TextUnit (text plus optional word boxes), an image file is run through
// the containerized OCR engine, anything else is plain text. With no
// arguments, stdin becomes the single document.
func readDocuments(paths []string) ([]types.TextUnit, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []types.TextUnit{{Text: string(data)}}, nil
	}

	var images []string
	docs := make([]types.TextUnit, 0, len(paths))
	for _, path := range paths {
		if isImagePath(path) {
			images = append(images, path)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if strings.HasSuffix(path, ".json") {
			var unit types.TextUnit
			if err := json.Unmarshal(data, &unit); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", path, err)
			}
			docs = append(docs, unit)
			continue
		}
		docs = append(docs, types.TextUnit{Text: string(data)})
	}

	if len(images) > 0 {
		extracted, err := ocrImages(images)
		if err != nil {
			return nil, err
		}
		docs = append(docs, extracted...)
	}
	return docs, nil
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}

// ocrImages runs image files through the containerized OCR engine. Requires
// a docker or podman runtime with the engine image pulled.
func ocrImages(paths []string) ([]types.TextUnit, error) {
	rt, err := ocr.DetectRuntime()
	if err != nil {
		return nil, fmt.Errorf("image input needs a container runtime: %w", err)
	}
	engine, err := ocr.NewTesseractEngine(rt)
	if err != nil {
		return nil, err
	}
	return ocr.ExtractAll(engine, paths, os.Stderr), nil
}

// pipelineConfig assembles stage configuration from flags, the config file,
// and loaded secrets, flags winning.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.Parse.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	if cfg.Parse.MinConfidence == 0 {
		cfg.Parse.MinConfidence = viper.GetFloat64("parse.min_confidence")
	}

	cfg.Parse.Oracle.Model = viper.GetString("parse.oracle.model")
	if cfg.Parse.Oracle.Model == "" {
		cfg.Parse.Oracle.Model = "grok-2-latest"
	}
	cfg.Parse.Oracle.BaseURL = viper.GetString("parse.oracle.base_url")
	cfg.Parse.Oracle.APIKey = secretDefault(secrets.KeyGrokAPI, viper.GetString("parse.oracle.api_key"))
	cfg.Parse.Oracle.MaxRetries = viper.GetInt("parse.oracle.max_retries")

	dbPath, _ := cmd.Flags().GetString("catalog-db")
	if dbPath == "" {
		dbPath = viper.GetString("catalog.db_path")
	}
	cfg.Catalog.DBPath = dbPath
	cfg.Catalog.FuzzyThreshold = viper.GetFloat64("catalog.fuzzy_threshold")

	cfg.Stock.Tolerance = viper.GetInt("stock.tolerance")
	cfg.Stock.RowClusterPx = viper.GetFloat64("stock.row_cluster_px")

	return cfg
}

// buildOracle returns a Grok backend, or nil when no API key is available.
func buildOracle(cfg types.OracleConfig) parse.Oracle {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "no oracle API key configured; unmatched text will be dropped")
		return nil
	}
	return &parse.GrokBackend{Config: cfg}
}

// openIndex loads the catalog into memory. A missing database is not fatal:
// every location resolves to the not-assigned sentinel.
func openIndex(cmd *cobra.Command, cfg types.PipelineConfig) (*catalog.Index, error) {
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	index, err := catalog.LoadIndex(context.Background(), store, cfg.Catalog.FuzzyThreshold)
	if err != nil {
		return nil, fmt.Errorf("loading catalog index: %w", err)
	}
	return index, nil
}

// writeRecords prints aggregated records in the requested format.
func writeRecords(w io.Writer, records []types.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		return yaml.NewEncoder(w).Encode(records)
	case "", "table":
		return writeTable(w, records)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, records []types.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tMEDICATION\tDOSE\tFORM\tPICK\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			locationString(r.Location), r.Name, r.Dose, r.Form,
			pickString(r), r.Notes)
	}
	return tw.Flush()
}

func locationString(l types.Location) string {
	if !l.Assigned() {
		return types.LocationNotAssigned
	}
	if l.Specific == "" {
		return l.General
	}
	return l.General + "/" + l.Specific
}

func pickString(r types.Record) string {
	if r.PickAmount == nil {
		return "VERIFY"
	}
	return fmt.Sprintf("%d", *r.PickAmount)
}
