// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/medscan/pkg/types"
)

const imageTesseract = "tesseract-ocr:latest"

// DefaultLang is the tesseract language model used when none is configured.
const DefaultLang = "eng"

// Engine extracts text from a label photograph. The containerized tesseract
// image is the production implementation; tests substitute their own.
type Engine interface {
	Extract(imagePath string) (types.TextUnit, error)
}

// TesseractEngine runs the tesseract OCR container on an image file. It
// depends on a Runtime (docker or podman) injected at construction time.
type TesseractEngine struct {
	runtime Runtime

	// Lang is the tesseract language model (default DefaultLang).
	Lang string
}

// NewTesseractEngine verifies the OCR image is present in the runtime and
// returns an engine bound to it.
func NewTesseractEngine(rt Runtime) (*TesseractEngine, error) {
	if err := rt.ImageExists(imageTesseract); err != nil {
		return nil, fmt.Errorf("OCR image not available in %s: %w", rt.Name(), err)
	}
	return &TesseractEngine{runtime: rt, Lang: DefaultLang}, nil
}

// Extract pipes the image through the OCR container and returns the
// extracted text as one document.
func (t *TesseractEngine) Extract(imagePath string) (types.TextUnit, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return types.TextUnit{}, fmt.Errorf("opening image %s: %w", imagePath, err)
	}
	defer f.Close()

	lang := t.Lang
	if lang == "" {
		lang = DefaultLang
	}
	// stdin/stdout filenames make tesseract read the piped image and write
	// the recognized text back on the pipe. PSM 6 assumes one uniform text
	// block, which fits labels and pick-list sheets.
	args := []string{"stdin", "stdout", "-l", lang, "--psm", "6"}

	var out bytes.Buffer
	if err := t.runtime.Run(imageTesseract, args, f, &out); err != nil {
		return types.TextUnit{}, fmt.Errorf("extracting text from %s: %w", imagePath, err)
	}
	if out.Len() == 0 {
		return types.TextUnit{}, fmt.Errorf("OCR produced no text for %s", imagePath)
	}

	return types.TextUnit{Text: out.String()}, nil
}

// ExtractAll runs the engine over a batch of images. Per-image failures are
// written to w and skipped; the scan continues with whatever text the rest
// produced.
func ExtractAll(e Engine, paths []string, w io.Writer) []types.TextUnit {
	docs := make([]types.TextUnit, 0, len(paths))
	for _, path := range paths {
		unit, err := e.Extract(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			continue
		}
		docs = append(docs, unit)
	}
	return docs
}
