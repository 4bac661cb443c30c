package sink

import (
	"io"
)

// Writer sends documents to an io.Writer such as standard output.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer sink around w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteDocument writes doc to the underlying writer.
func (s *Writer) WriteDocument(doc []byte) error {
	_, err := s.w.Write(doc)
	return err
}

// Stream returns the underlying writer. Closing it does not close w.
func (s *Writer) Stream() (io.WriteCloser, error) {
	return nopCloser{s.w}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
