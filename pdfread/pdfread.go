// CLAUDE:SUMMARY Rendered-artifact reading: pdfcpu text + Info-dictionary metadata, pluggable null fallback.
// Package pdfread extracts text and metadata from rendered PDF bytes.
//
// Reading is a pluggable capability: construct a PDFReader for real
// extraction, or a NullReader where PDF reading is switched off. The
// null implementation never errors; it reports its own unavailability
// in the text, so callers need no capability checks.
package pdfread

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is the readable content of a rendered PDF.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Pages    int               `json:"pages"`
}

// Reader extracts content from PDF bytes.
type Reader interface {
	Read(pdf []byte) (*Document, error)
}

// PDFReader reads PDFs with pdfcpu.
type PDFReader struct{}

// New creates a PDFReader.
func New() *PDFReader { return &PDFReader{} }

// infoKeys are the Info-dictionary entries surfaced as metadata.
var infoKeys = []string{"Title", "Author", "Subject", "Creator"}

// Read parses pdf and returns its text and document metadata. Errors only
// on genuinely malformed input.
func (r *PDFReader) Read(pdf []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfread: parse: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageText := extractPageText(ctx, pageNr)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}

	return &Document{
		Text:     sb.String(),
		Metadata: extractMetadata(ctx),
		Pages:    ctx.PageCount,
	}, nil
}

// extractMetadata reads the standard Info dictionary entries.
func extractMetadata(ctx *model.Context) map[string]string {
	meta := make(map[string]string)
	if ctx.Info == nil {
		return meta
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return meta
	}
	for _, key := range infoKeys {
		obj, found := d.Find(key)
		if !found {
			continue
		}
		if s := stringValue(ctx, obj); s != "" {
			meta[strings.ToLower(key)] = s
		}
	}
	return meta
}

// stringValue decodes a PDF string object, following indirect references.
func stringValue(ctx *model.Context, obj types.Object) string {
	resolved, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := resolved.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}

// extractPageText pulls the text operators out of one page's content stream.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromStream walks content-stream lines and collects show-text
// operators (Tj, TJ, ') plus positioning hints (Td/TD, T*).
func textFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return normalizeText(sb.String())
}

// decodePDFString handles basic PDF escape sequences, including octal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// normalizeText collapses whitespace and drops non-printable runes.
func normalizeText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
