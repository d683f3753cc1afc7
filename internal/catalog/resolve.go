// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/medscan/pkg/types"
)

// Scoring weights and thresholds for the fuzzy tier. The name dominates the
// score; dose and form mostly break ties between strengths of one drug.
const (
	nameWeight = 0.6
	doseWeight = 0.3
	formWeight = 0.1

	// minNameSim rejects entries before full scoring.
	minNameSim = 0.6

	// DefaultAcceptScore is the minimum weighted score for a fuzzy match.
	DefaultAcceptScore = 0.75

	// shortCircuitScore ends the scan early on a good-enough match.
	shortCircuitScore = 0.95

	prefixLen = 3
)

type exactKey struct {
	name string
	dose string
	form string
}

// Index is the immutable in-memory catalog built once per process. Concurrent
// sessions share one instance; it is never mutated after construction.
type Index struct {
	exact  map[exactKey]types.Location
	prefix map[string][]Entry
	accept float64
}

// NewIndex builds an index over the given entries. A non-positive threshold
// selects DefaultAcceptScore.
func NewIndex(entries []Entry, threshold float64) *Index {
	if threshold <= 0 {
		threshold = DefaultAcceptScore
	}

	ix := &Index{
		exact:  make(map[exactKey]types.Location, len(entries)),
		prefix: make(map[string][]Entry),
		accept: threshold,
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		ix.exact[exactKey{name: name, dose: e.Dose, form: e.Form}] = e.Location

		p := namePrefix(name)
		ix.prefix[p] = append(ix.prefix[p], e)
	}
	return ix
}

// LoadIndex materializes the index from the catalog store.
func LoadIndex(ctx context.Context, s *Store, threshold float64) (*Index, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries, threshold), nil
}

// Resolve looks up a candidate's storage location: exact triple first, fuzzy
// scoring second, and the explicit not-assigned sentinel when neither tier
// matches. A location is never inferred from anything but the catalog.
func (ix *Index) Resolve(c types.Candidate) types.Location {
	return ix.Lookup(c.Name, c.Strength, c.Form)
}

// Lookup resolves a raw (name, dose, form) triple the same way Resolve does.
func (ix *Index) Lookup(name, dose, form string) types.Location {
	qName := strings.ToLower(NormalizeName(name))
	qDose := NormalizeDose(dose)
	qForm := NormalizeForm(form)

	if loc, ok := ix.exact[exactKey{name: qName, dose: qDose, form: qForm}]; ok {
		return loc
	}

	var (
		best      float64
		bestEntry *Entry
	)
	bucket := ix.prefix[namePrefix(qName)]
	for i := range bucket {
		e := &bucket[i]

		nameSim := similarity(qName, strings.ToLower(e.Name))
		if nameSim < minNameSim {
			continue
		}

		score := nameWeight*nameSim +
			doseWeight*similarity(qDose, e.Dose) +
			formWeight*similarity(qForm, e.Form)
		if score > best {
			best = score
			bestEntry = e
		}
		if best >= shortCircuitScore {
			break
		}
	}

	if bestEntry != nil && best >= ix.accept {
		return bestEntry.Location
	}
	return types.Location{General: types.LocationNotAssigned}
}

func namePrefix(name string) string {
	if len(name) < prefixLen {
		return name
	}
	return name[:prefixLen]
}

// similarity is a normalized Levenshtein ratio in [0,1]. Two empty strings
// are identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
