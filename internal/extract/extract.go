// Package extract pulls plain text out of uploaded course material.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUnsupported is returned for extensions outside pdf, doc, docx, ppt
	// and pptx.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrUnreadable is returned when a supported file cannot be parsed.
	ErrUnreadable = errors.New("unreadable document")
)

// Document is the extracted form of an upload.
type Document struct {
	Format   string // lower-cased extension without the dot
	MIMEType string
	Detected string // sniffed from the content
	Text     string
}

// Inline reports whether the original bytes can be attached to a model
// request as-is.
func (d Document) Inline() bool { return d.Format == "pdf" }

var mimeByFormat = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Supported reports whether name has an extension Extract handles.
func Supported(name string) bool {
	_, ok := mimeByFormat[format(name)]
	return ok
}

func format(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Extract dispatches on the file extension of name.
func Extract(name string, data []byte) (Document, error) {
	f := format(name)
	mt, ok := mimeByFormat[f]
	if !ok {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
	}
	detected := mimetype.Detect(data)
	if f == "pdf" && !detected.Is(mt) {
		return Document{}, fmt.Errorf("%w: pdf: content is %s", ErrUnreadable, detected.String())
	}

	var (
		text string
		err  error
	)
	switch f {
	case "pdf":
		text, err = pdfText(data)
	case "doc", "docx":
		text, err = wordText(data)
	case "ppt", "pptx":
		text, err = slidesText(data)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, f, err)
	}
	return Document{Format: f, MIMEType: mt, Detected: detected.String(), Text: strings.TrimSpace(text)}, nil
}
