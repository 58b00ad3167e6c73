// Package output renders backend payloads for the terminal and for export files.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON writes payload to w, indented with two spaces
func WriteJSON(w io.Writer, payload json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveJSON writes an indented copy of payload to filepath.
func SaveJSON(payload json.RawMessage, filepath string) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, payload); err != nil {
		return err
	}
	return os.WriteFile(filepath, buf.Bytes(), 0644)
}
