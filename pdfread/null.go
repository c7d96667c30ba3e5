package pdfread

// UnavailableText is the sentinel returned when PDF reading is disabled.
const UnavailableText = "[PDF text extraction unavailable]"

// NullReader satisfies Reader without any PDF capability. It never errors.
type NullReader struct{}

// NewNull creates a NullReader.
func NewNull() *NullReader { return &NullReader{} }

// Read reports unavailability instead of parsing.
func (*NullReader) Read([]byte) (*Document, error) {
	return &Document{
		Text:     UnavailableText,
		Metadata: map[string]string{},
	}, nil
}
