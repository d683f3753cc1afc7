// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/medscan/internal/httputil"
	"github.com/pdiddy/medscan/pkg/types"
)

// Oracle abstracts the text-to-JSON extraction service consulted when the
// cascade yields nothing, so tests can supply a mock. The oracle receives the
// full document text, not a single line: surrounding context improves its
// extraction.
type Oracle interface {
	Extract(ctx context.Context, text string) ([]OracleRecord, error)
}

// OracleRecord is a single medication as returned by the oracle. Every field
// is nullable on the wire; a record with no meaningful field at all is "no
// result", not a candidate.
type OracleRecord struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Strength string `json:"strength"`
	Form     string `json:"form"`
	// Type is an alternate key some responses use for the dosage form.
	Type string `json:"type"`
	// Dose and Sig are alternate keys for the frequency instruction.
	Dose        string `json:"dose"`
	Sig         string `json:"sig"`
	Patient     string `json:"patient"`
	Floor       string `json:"floor"`
	MRN         string `json:"mrn"`
	RxNumber    string `json:"rx_number"`
	OrderNumber string `json:"order_number"`
}

// IsEmpty reports whether every field is null or empty.
func (r OracleRecord) IsEmpty() bool {
	return r.Name == "" && r.Brand == "" && r.Strength == "" &&
		r.Form == "" && r.Type == "" && r.Dose == "" && r.Sig == "" &&
		r.Patient == "" && r.Floor == "" && r.MRN == "" &&
		r.RxNumber == "" && r.OrderNumber == ""
}

// oraclePromptTmpl instructs the model to extract every medication from the
// unmatched text as strict JSON with explicit nulls for unknown fields.
var oraclePromptTmpl = template.Must(template.New("oracle").Parse(`You are a pharmacy medication extraction expert. Extract medication information from this pharmacy label or pick-list text and return ONLY valid JSON.

CRITICAL INSTRUCTIONS:
1. Extract EVERY medication mentioned
2. For medication names: use generic names (e.g. "lisinopril" not "PRINIVIL")
3. For strengths: include units (e.g. "10 mg", "5 mcg")
4. For forms: use standard terms (tablet, capsule, liquid, injection, bag)
5. Handle OCR errors intelligently (e.g. "1Omg" means "10 mg", "tabiet" means "tablet")
6. IV bags should have form "bag", not "injection"
7. Use null for any field not present in the text

Respond with a JSON object containing a "medications" array. Each element has keys: name, brand, strength, form, sig, patient, floor, mrn, rx_number, order_number.

Text to parse:
{{.Text}}

Return ONLY the JSON response, no explanations:`))

// defaultOracleURL is the x.ai chat-completions endpoint the original
// deployment used. Package-level var for test substitution.
var defaultOracleURL = "https://api.x.ai/v1/chat/completions"

// GrokBackend calls an OpenAI-compatible chat-completions API to extract
// medications from unmatched text.
type GrokBackend struct {
	Config types.OracleConfig
	Client *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// oracleEnvelope is the JSON object the prompt asks for.
type oracleEnvelope struct {
	Medications []OracleRecord `json:"medications"`
}

// Extract posts the extraction prompt and decodes the medications array.
func (g *GrokBackend) Extract(ctx context.Context, text string) ([]OracleRecord, error) {
	var buf bytes.Buffer
	if err := oraclePromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := chatRequest{
		Model: g.Config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a pharmacy medication extraction expert."},
			{Role: "user", Content: buf.String()},
		},
		Temperature: 0.1,
		MaxTokens:   3000,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := g.Config.BaseURL
	if url == "" {
		url = defaultOracleURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.Config.APIKey)
	if g.Config.UserAgent != "" {
		req.Header.Set("User-Agent", g.Config.UserAgent)
	}

	client := g.Client
	if client == nil {
		timeout := g.Config.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, g.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oracle returned %d: %s", resp.StatusCode, string(b))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding oracle response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	return ParseOracleJSON(cr.Choices[0].Message.Content)
}

// ParseOracleJSON decodes the oracle's JSON payload, tolerating Markdown code
// fences around the object. All-empty records are dropped: an all-null
// response is "no result", never a candidate.
func ParseOracleJSON(content string) ([]OracleRecord, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var env oracleEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("parsing oracle JSON: %w", err)
	}

	var records []OracleRecord
	for _, r := range env.Medications {
		if r.IsEmpty() {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// backoffBase controls the base duration for retry backoff. Tests override
// this to avoid real sleeps.
var backoffBase = time.Second

// fallback invokes the oracle with at most one retry and converts surviving
// records into validated candidates.
func (p *Parser) fallback(ctx context.Context, text string) ([]types.Candidate, error) {
	records, err := callWithRetry(ctx, p.Oracle, text, 1)
	if err != nil {
		return nil, err
	}

	var cands []types.Candidate
	for _, r := range records {
		cand, ok := candidateFromOracle(r)
		if !ok {
			continue
		}
		cand.Confidence = Confidence(cand, text)
		cands = append(cands, cand)
	}
	return cands, nil
}

// callWithRetry calls the oracle with exponential backoff between attempts.
func callWithRetry(ctx context.Context, o Oracle, text string, maxRetries int) ([]OracleRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		records, err := o.Extract(ctx, text)
		if err == nil {
			return records, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// candidateFromOracle converts an oracle record into a candidate, coalescing
// alternate field keys and applying the same validation and normalization as
// the cascade.
func candidateFromOracle(r OracleRecord) (types.Candidate, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" || !ValidName(name) {
		return types.Candidate{}, false
	}

	form := r.Form
	if form == "" {
		form = r.Type
	}
	sigCode := r.Sig
	if sigCode == "" {
		sigCode = r.Dose
	}

	return types.Candidate{
		Name:        name,
		Brand:       strings.TrimSpace(r.Brand),
		Strength:    CleanStrength(r.Strength),
		Form:        StandardizeForm(name, form),
		SigCode:     strings.TrimSpace(sigCode),
		Patient:     strings.TrimSpace(r.Patient),
		Floor:       strings.TrimSpace(r.Floor),
		MRN:         strings.TrimSpace(r.MRN),
		RxNumber:    strings.TrimSpace(r.RxNumber),
		OrderNumber: strings.TrimSpace(r.OrderNumber),
		Source:      types.SourceOracle,
	}, true
}
