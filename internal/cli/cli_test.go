package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/batch"
	"github.com/law-makers/scrapejob/pkg/models"
)

// newBackend returns a fake backend echoing the submitted nameSelector as a single record
func newBackend(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		var req models.BackendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.URL == "https://fail.test" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		item := map[string]string{}
		for _, pair := range req.NameSelector {
			for k, v := range pair {
				item[k] = "value of " + v
			}
		}
		json.NewEncoder(w).Encode(models.ExtractResult{URL: req.URL, Count: 1, Items: []map[string]string{item}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeJob(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"title=h3", " link = a[href=\"/x\"] "})
	if err != nil {
		t.Fatalf("parseFields failed: %v", err)
	}
	want := []models.FieldExtractor{{Name: "title", Selector: "h3"}, {Name: "link", Selector: `a[href="/x"]`}}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: expected %+v, got %+v", i, want[i], fields[i])
		}
	}

	if _, err := parseFields([]string{"title"}); err == nil {
		t.Error("expected error for field without '='")
	}
}

func TestBuildJobs_FromFlags(t *testing.T) {
	jobs, err := buildJobs(nil, jobOverrides{
		URL: "https://example.com", RootSelector: ".card", Fields: []string{"title=h3"},
		urlSet: true, rootSet: true,
	})
	if err != nil {
		t.Fatalf("buildJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Source != "flags" {
		t.Fatalf("expected one job from flags, got %+v", jobs)
	}
	cfg := jobs[0].Config
	if cfg.URL != "https://example.com" || cfg.RootSelector != ".card" || cfg.Fields[0].Name != "title" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestBuildJobs_Errors(t *testing.T) {
	if _, err := buildJobs(nil, jobOverrides{}); err == nil {
		t.Error("expected error with no files and no flags")
	}
	if _, err := buildJobs(nil, jobOverrides{URL: "example.com", urlSet: true}); err == nil {
		t.Error("expected error for URL without scheme")
	}
	if _, err := buildJobs([]string{filepath.Join(t.TempDir(), "missing.yaml")}, jobOverrides{}); err == nil {
		t.Error("expected error for missing job file")
	}
}

func TestBuildJobs_FlagsOverrideFile(t *testing.T) {
	path := writeJob(t, t.TempDir(), "job.yaml", `
url: https://file.test
root_selector: .row
fields:
  - name: a
    selector: td
`)
	jobs, err := buildJobs([]string{path}, jobOverrides{RootSelector: ".item", rootSet: true})
	if err != nil {
		t.Fatalf("buildJobs failed: %v", err)
	}
	cfg := jobs[0].Config
	if cfg.URL != "https://file.test" {
		t.Errorf("expected URL from file, got %q", cfg.URL)
	}
	if cfg.RootSelector != ".item" {
		t.Errorf("expected root selector from flag, got %q", cfg.RootSelector)
	}
	if len(cfg.Fields) != 1 || cfg.Fields[0].Name != "a" {
		t.Errorf("expected fields from file, got %+v", cfg.Fields)
	}
}

func TestCheckJobs_Strict(t *testing.T) {
	jobs := []batch.Job{{Source: "flags", Config: models.NewJobConfig()}}

	var buf bytes.Buffer
	if err := checkJobs(&buf, jobs, false); err != nil {
		t.Errorf("expected lint to be advisory, got %v", err)
	}
	if !strings.Contains(buf.String(), "url is empty") {
		t.Errorf("expected lint output, got %q", buf.String())
	}
	if err := checkJobs(io.Discard, jobs, true); err == nil {
		t.Error("expected strict mode to refuse the job")
	}
}

func TestPrintBodies(t *testing.T) {
	cfg := models.JobConfig{
		URL:          "https://example.com",
		RootSelector: ".card",
		Fields:       []models.FieldExtractor{{Name: "t", Selector: "h3"}, {Name: "t", Selector: "h4"}},
	}

	var buf bytes.Buffer
	if err := printBodies(&buf, []batch.Job{{Source: "flags", Config: cfg}}); err != nil {
		t.Fatalf("printBodies failed: %v", err)
	}

	var req models.BackendRequest
	if err := json.Unmarshal(buf.Bytes(), &req); err != nil {
		t.Fatalf("dry run output is not JSON: %v", err)
	}
	if len(req.NameSelector) != 2 || req.NameSelector[1]["t"] != "h4" {
		t.Errorf("expected both duplicate-name entries, got %+v", req.NameSelector)
	}
}

func TestBatchOutputPath(t *testing.T) {
	tests := []struct {
		dest, source, want string
	}{
		{"", "a.yaml", ""},
		{"out/results.json", "jobs/shop.yaml", "out/results-shop.json"},
		{"records.csv", "news.json", "records-news.csv"},
	}
	for _, tt := range tests {
		if got := batchOutputPath(tt.dest, tt.source); got != tt.want {
			t.Errorf("batchOutputPath(%q, %q) = %q, want %q", tt.dest, tt.source, got, tt.want)
		}
	}
}

func TestSubmitOne_SavesCSV(t *testing.T) {
	srv := newBackend(t, nil)
	dest := filepath.Join(t.TempDir(), "records.csv")

	job := batch.Job{Source: "flags", Config: models.JobConfig{
		URL:          "https://example.com",
		RootSelector: ".card",
		Fields:       []models.FieldExtractor{{Name: "title", Selector: "h3"}, {Name: "price", Selector: ".p"}},
	}}

	var stderr bytes.Buffer
	err := submitOne(context.Background(), io.Discard, &stderr, backend.NewClient(srv.URL), job, dest)
	if err != nil {
		t.Fatalf("submitOne failed: %v (%s)", err, stderr.String())
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "title,price\nvalue of h3,value of .p\n" {
		t.Errorf("unexpected CSV %q", data)
	}
	if !strings.Contains(stderr.String(), "Submitting job...") {
		t.Errorf("expected pending line on stderr, got %q", stderr.String())
	}
}

func TestSubmitOne_ServerError(t *testing.T) {
	srv := newBackend(t, nil)
	job := batch.Job{Source: "flags", Config: models.JobConfig{URL: "https://fail.test", Fields: []models.FieldExtractor{{}}}}

	var stdout, stderr bytes.Buffer
	err := submitOne(context.Background(), &stdout, &stderr, backend.NewClient(srv.URL), job, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr.String(), "rejected the job (HTTP 500)") {
		t.Errorf("expected server error message, got %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no result on stdout, got %q", stdout.String())
	}
}

func TestSubmitBatch_ReportsFailures(t *testing.T) {
	var calls int32
	srv := newBackend(t, &calls)

	jobs := []batch.Job{
		{Source: "ok.yaml", Config: models.JobConfig{URL: "https://a.test", Fields: []models.FieldExtractor{{Name: "x", Selector: "b"}}}},
		{Source: "fail.yaml", Config: models.JobConfig{URL: "https://fail.test", Fields: []models.FieldExtractor{{}}}},
		{Source: "ok2.yaml", Config: models.JobConfig{URL: "https://b.test", Fields: []models.FieldExtractor{{Name: "y", Selector: "i"}}}},
	}

	var stdout, stderr bytes.Buffer
	err := submitBatch(context.Background(), &stdout, &stderr, batch.New(backend.NewClient(srv.URL), 2), jobs, "")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 jobs failed") {
		t.Errorf("expected one failure, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 backend calls, got %d", calls)
	}
	if !strings.Contains(stderr.String(), "2 succeeded, 1 failed") {
		t.Errorf("expected summary, got %q", stderr.String())
	}
}

func TestEditor_Session(t *testing.T) {
	var calls int32
	srv := newBackend(t, &calls)

	script := strings.Join([]string{
		"url https://example.com",
		"root .card",
		"name 0 title",
		"selector 0 h3",
		"add",
		"name 1 price",
		"selector 1 .price",
		"remove 0",
		"remove 7",
		"bogus",
		"body",
		"submit",
		"wait",
		"status",
		"quit",
		"submit",
	}, "\n")

	var out bytes.Buffer
	e := newEditor(backend.NewClient(srv.URL), &out, nil)
	if err := e.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"added field 1",
		"the first field cannot be removed",
		"no field 7",
		`unknown command "bogus"`,
		`"nameSelector"`,
		"Submitting job...",
		`"price": "value of .price"`,
		"succeeded",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q\n%s", want, got)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected commands after quit to be ignored, got %d calls", calls)
	}
}

func TestEditor_StartsFromConfig(t *testing.T) {
	initial := models.JobConfig{URL: "https://x.test", RootSelector: "li", Fields: []models.FieldExtractor{{Name: "n", Selector: "span"}}}

	var out bytes.Buffer
	e := newEditor(backend.NewClient("http://127.0.0.1:0"), &out, &initial)
	if err := e.Run(context.Background(), strings.NewReader("show\nlint\n")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "[0] n = span") {
		t.Errorf("expected initial field in output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "no issues") {
		t.Errorf("expected clean lint, got %q", out.String())
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four\n\n  keep   this indented\n- list item stays", 9)
	want := "one two\nthree\nfour\n\n  keep   this indented\n- list item stays"
	if got != want {
		t.Errorf("wrapText:\n got %q\nwant %q", got, want)
	}
}

func TestSplitFlagLine(t *testing.T) {
	name, desc, ok := splitFlagLine("  -o, --output string     File path to save the result")
	if !ok || name != "-o, --output string" || desc != "File path to save the result" {
		t.Errorf("unexpected split: %q %q %v", name, desc, ok)
	}
	if _, _, ok := splitFlagLine("                            continued description"); ok {
		t.Error("expected continuation line to be rejected")
	}
}

func TestCustomHelpFunc(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	customHelpFunc(rootCmd, nil)

	got := buf.String()
	for _, want := range []string{"SCRAPEJOB", "Commands", "submit", "serve", "edit", "--backend"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected help to mention %q\n%s", want, got)
		}
	}
}
