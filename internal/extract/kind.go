package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type Kind int

const (
	KindPDF Kind = iota + 1
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

var extensionKinds = map[string]Kind{
	".pdf":  KindPDF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
}

// KindFromIdentifier resolves the document kind from the identifier's extension, case-insensitively.
func KindFromIdentifier(identifier string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(identifier)))
	kind, ok := extensionKinds[ext]
	if !ok {
		return 0, fmt.Errorf("%w: %q", appErr.ErrUnsupportedKind, identifier)
	}
	return kind, nil
}
