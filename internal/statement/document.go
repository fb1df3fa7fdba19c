package statement

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/financeiro/internal/llm"
)

// ErrUnsupportedDocument is returned for files that are neither a PDF nor an
// image the models accept.
var ErrUnsupportedDocument = errors.New("statement: unsupported document type")

var supportedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
}

// NewDocument sniffs the type of data and wraps it for the model.
func NewDocument(data []byte) (llm.Image, error) {
	mime := http.DetectContentType(data)
	if !supportedTypes[mime] {
		return llm.Image{}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mime)
	}
	return llm.Image{MIMEType: mime, Data: data}, nil
}
