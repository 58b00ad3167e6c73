package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/law-makers/scrapejob/pkg/models"
)

// ErrNotTabular is returned when a payload has no list of records to lay out as rows
var ErrNotTabular = errors.New("payload has no records to write as CSV")

// Records pulls the list of records out of a payload. It accepts a top-level array
// or an object carrying an "items" array. Non-string values are kept as their JSON text.
func Records(payload json.RawMessage) ([]map[string]string, error) {
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(payload, &list); err != nil {
		var wrapper struct {
			Items []map[string]json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(payload, &wrapper); err != nil || wrapper.Items == nil {
			return nil, ErrNotTabular
		}
		list = wrapper.Items
	}

	records := make([]map[string]string, 0, len(list))
	for _, raw := range list {
		rec := make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				s = string(v)
			}
			rec[k] = s
		}
		records = append(records, rec)
	}
	return records, nil
}

// Columns orders CSV headers by the job's field order. Keys present in the records
// but not named by any field follow, sorted.
func Columns(fields []models.FieldExtractor, records []map[string]string) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		cols = append(cols, f.Name)
	}

	var extra []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// WriteCSV writes the payload's records to w with a header row
func WriteCSV(w io.Writer, payload json.RawMessage, fields []models.FieldExtractor) error {
	records, err := Records(payload)
	if err != nil {
		return err
	}
	cols := Columns(fields, records)

	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the payload's records to a CSV file. Returns an error on failure.
func SaveCSV(payload json.RawMessage, fields []models.FieldExtractor, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, payload, fields); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath, err)
	}
	return nil
}
