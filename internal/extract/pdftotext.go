package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

var errNotPDF = errors.New("content is not a pdf document")

var pdfMagic = []byte("%PDF-")

type pdftotextConfig struct {
	Bin string `json:"bin"`
}

type pdftotextExtractor struct {
	bin    string
	runner CommandRunner
}

func init() {
	Register("pdftotext", func(args interface{}) (Extractor, error) {
		cfg := &pdftotextConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		return NewPDFToText(cfg.Bin, nil), nil
	})
}

// NewPDFToText extracts text layout from pdf bytes through poppler's pdftotext.
func NewPDFToText(bin string, runner CommandRunner) Extractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &pdftotextExtractor{bin: bin, runner: runner}
}

func (e *pdftotextExtractor) Reads(kind Kind) bool {
	return kind == KindPDF
}

func (e *pdftotextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return "", errNotPDF
	}
	out, err := e.runner.Run(ctx, data, e.bin, "-layout", "-enc", "UTF-8", "-q", "-", "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds.
	return string(bytes.ReplaceAll(out, []byte("\f"), []byte("\n"))), nil
}
