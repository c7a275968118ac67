package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var errNotImage = errors.New("content is not a jpeg or png image")

type tesseractConfig struct {
	Bin  string `json:"bin"`
	Lang string `json:"lang"`
}

type tesseractExtractor struct {
	bin    string
	lang   string
	runner CommandRunner
}

func init() {
	Register("tesseract", func(args interface{}) (Extractor, error) {
		cfg := &tesseractConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		return NewTesseract(cfg.Bin, cfg.Lang, nil), nil
	})
}

func NewTesseract(bin, lang string, runner CommandRunner) Extractor {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &tesseractExtractor{bin: bin, lang: lang, runner: runner}
}

func (e *tesseractExtractor) Reads(kind Kind) bool {
	return kind == KindImage
}

func (e *tesseractExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if _, err := imageMIMEType(data); err != nil {
		return "", err
	}
	out, err := e.runner.Run(ctx, data, e.bin, "stdin", "stdout", "-l", e.lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	// Recognised lines are joined by single spaces.
	return strings.Join(strings.Fields(string(out)), " "), nil
}

func imageMIMEType(data []byte) (string, error) {
	switch mime := http.DetectContentType(data); mime {
	case "image/jpeg", "image/png":
		return mime, nil
	default:
		return "", errNotImage
	}
}
