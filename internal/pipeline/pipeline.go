// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline assembles the scan stages into one batch transform: parse
// each document, resolve locations against the shared catalog index, and
// aggregate into the final pick list. Per-document parsing is independent and
// runs concurrently; output order is deterministic regardless of completion
// order.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/medscan/internal/aggregate"
	"github.com/pdiddy/medscan/internal/catalog"
	"github.com/pdiddy/medscan/internal/parse"
	"github.com/pdiddy/medscan/internal/stock"
	"github.com/pdiddy/medscan/pkg/types"
)

// Mode selects how documents are interpreted.
type Mode int

const (
	// LabelMode parses patient labels and cart-fill sheets line by line.
	LabelMode Mode = iota

	// FloorStockMode walks pick-list tables and runs the numeric
	// disambiguator.
	FloorStockMode
)

// Session holds the per-process pipeline state. The catalog index is
// immutable after load, so concurrent sessions may share one instance. A nil
// index resolves every candidate to the not-assigned sentinel.
type Session struct {
	index  *catalog.Index
	parser *parse.Parser
	cfg    types.PipelineConfig
}

// NewSession builds a session. A nil oracle disables the parse fallback.
func NewSession(index *catalog.Index, oracle parse.Oracle, cfg types.PipelineConfig) *Session {
	return &Session{
		index: index,
		parser: &parse.Parser{
			Oracle:        oracle,
			MinConfidence: cfg.Parse.MinConfidence,
		},
		cfg: cfg,
	}
}

// Output holds the aggregated records and scan statistics.
type Output struct {
	Records []types.Record

	// Candidates is the number of medication candidates recovered before
	// aggregation.
	Candidates int

	// Unresolved counts records whose location the catalog could not
	// assign.
	Unresolved int

	// NeedsVerification counts records whose pick amount could not be
	// determined and must be checked by hand.
	NeedsVerification int
}

// Process runs the full transform over a batch of documents. Parsing fans out
// per document; progress and degradation notices for each document are
// buffered and written to w in document order so the log is reproducible.
func (s *Session) Process(ctx context.Context, docs []types.TextUnit, mode Mode, w io.Writer) (Output, error) {
	type docResult struct {
		idx   int
		cands []types.Candidate
		log   bytes.Buffer
	}

	ch := make(chan *docResult, len(docs))
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(idx int, unit types.TextUnit) {
			defer wg.Done()
			res := &docResult{idx: idx}
			res.cands = s.parseDoc(ctx, unit, mode, &res.log)
			ch <- res
		}(i, doc)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	results := make([]*docResult, 0, len(docs))
	for res := range ch {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })

	var candidates []types.Candidate
	for _, res := range results {
		if res.log.Len() > 0 {
			fmt.Fprintf(w, "document %d:\n", res.idx+1)
			io.Copy(w, &res.log)
		}
		candidates = append(candidates, res.cands...)
	}

	for i := range candidates {
		candidates[i].Resolved = s.resolve(candidates[i])
	}

	out := Output{
		Records:    aggregate.Aggregate(candidates),
		Candidates: len(candidates),
	}
	for _, rec := range out.Records {
		if !rec.Location.Assigned() {
			out.Unresolved++
		}
		if rec.PickAmount == nil {
			out.NeedsVerification++
		}
	}
	return out, nil
}

func (s *Session) parseDoc(ctx context.Context, unit types.TextUnit, mode Mode, w io.Writer) []types.Candidate {
	if mode == FloorStockMode {
		if len(unit.Words) > 0 {
			return stock.FromWords(unit.Words, s.cfg.Stock.Tolerance, s.cfg.Stock.RowClusterPx)
		}
		return stock.Walk(unit.Text, s.cfg.Stock.Tolerance)
	}
	return s.parser.Document(ctx, unit, w)
}

func (s *Session) resolve(c types.Candidate) types.Location {
	if s.index == nil {
		return types.Location{General: types.LocationNotAssigned}
	}
	return s.index.Resolve(c)
}
