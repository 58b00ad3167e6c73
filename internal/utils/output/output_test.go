package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/scrapejob/pkg/models"
)

func TestWriteJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, json.RawMessage(`{"count":1,"items":[{"a":"b"}]}`)); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"count\": 1") {
		t.Errorf("expected indented output, got %q", buf.String())
	}
}

func TestWriteJSON_Invalid(t *testing.T) {
	if err := WriteJSON(&bytes.Buffer{}, json.RawMessage(`{`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestWriteCSV_FieldOrder(t *testing.T) {
	payload := json.RawMessage(`{"items":[{"price":"3","title":"A","extra":1},{"title":"B"}]}`)
	fields := []models.FieldExtractor{{Name: "title"}, {Name: "price"}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, payload, fields); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "title,price,extra\nA,3,1\nB,,\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteCSV_TopLevelArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, json.RawMessage(`[{"x":"1"}]`), nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.String() != "x\n1\n" {
		t.Errorf("unexpected CSV %q", buf.String())
	}
}

func TestWriteCSV_NotTabular(t *testing.T) {
	for _, p := range []string{`{"count":0}`, `"text"`, `42`} {
		if err := WriteCSV(&bytes.Buffer{}, json.RawMessage(p), nil); err != ErrNotTabular {
			t.Errorf("payload %s: expected ErrNotTabular, got %v", p, err)
		}
	}
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir()
	payload := json.RawMessage(`{"items":[{"n":"v"}]}`)

	jsonPath := filepath.Join(dir, "out.json")
	if err := SaveJSON(payload, jsonPath); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}
	csvPath := filepath.Join(dir, "out.csv")
	if err := SaveCSV(payload, []models.FieldExtractor{{Name: "n"}}, csvPath); err != nil {
		t.Fatalf("SaveCSV failed: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "n\nv\n" {
		t.Errorf("unexpected CSV file %q", data)
	}
}
