// internal/cli/submit.go
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/scrapejob/internal/app"
	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/batch"
	"github.com/law-makers/scrapejob/internal/jobconfig"
	"github.com/law-makers/scrapejob/internal/session"
	"github.com/law-makers/scrapejob/internal/transform"
	"github.com/law-makers/scrapejob/internal/ui"
	"github.com/law-makers/scrapejob/internal/utils/headers"
	"github.com/law-makers/scrapejob/internal/utils/output"
	urlutil "github.com/law-makers/scrapejob/internal/utils/url"
	"github.com/law-makers/scrapejob/pkg/models"
)

var (
	jobURL        string
	rootSelector  string
	fieldFlags    []string
	outputPath    string
	dryRun        bool
	strict        bool
	submitHeaders []string
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit [job-file...]",
	Short: "Submit scraping jobs to the backend",
	Long: `Builds a job from a YAML or JSON job file, or from flags, and submits it to the
scraping backend. The result is printed as JSON or saved with --output.

Flags override the matching values of every job file. When several job files are
given they are submitted concurrently as independent jobs.`,
	Example: `  # Submit a job described by flags
  scrapejob submit --url https://example.com --root-selector ".card" --field title=h3 --field price=.price

  # Submit a job file and save the records as CSV
  scrapejob submit job.yaml --output records.csv

  # Show the request body without sending it
  scrapejob submit job.yaml --dry-run

  # Submit a batch of jobs to a remote backend
  scrapejob submit jobs/*.yaml --backend https://scraper.internal/scrap/ -H "Authorization: Bearer token"`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&jobURL, "url", "u", "", "Page URL to scrape")
	submitCmd.Flags().StringVarP(&rootSelector, "root-selector", "s", "", "CSS selector matching each record")
	submitCmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", []string{}, "Field extractor as name=selector (repeatable, replaces file fields)")
	submitCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File path to save the result (supports .json, .csv)")
	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the request body instead of submitting")
	submitCmd.Flags().BoolVar(&strict, "strict", false, "Refuse to submit jobs with empty or duplicate values")
	submitCmd.Flags().StringArrayVarP(&submitHeaders, "header", "H", []string{}, "Custom headers sent to the backend (e.g., -H \"Authorization: Bearer token\")")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application is not initialized")
	}

	jobs, err := buildJobs(args, jobOverrides{
		URL:          jobURL,
		RootSelector: rootSelector,
		Fields:       fieldFlags,
		urlSet:       cmd.Flags().Changed("url"),
		rootSet:      cmd.Flags().Changed("root-selector"),
	})
	if err != nil {
		return err
	}

	if err := checkJobs(cmd.ErrOrStderr(), jobs, strict); err != nil {
		return err
	}

	if dryRun {
		return printBodies(cmd.OutOrStdout(), jobs)
	}

	client, err := backendFor(a, submitHeaders)
	if err != nil {
		return err
	}

	if len(jobs) == 1 {
		return submitOne(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), client, jobs[0], outputPath)
	}
	return submitBatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), batch.New(client, a.Config.Concurrency), jobs, outputPath)
}

// jobOverrides holds job values given on the command line
type jobOverrides struct {
	URL          string
	RootSelector string
	Fields       []string

	urlSet  bool
	rootSet bool
}

// buildJobs loads each job file and applies the overrides. With no files the job
// is built from the overrides alone.
func buildJobs(files []string, o jobOverrides) ([]batch.Job, error) {
	fields, err := parseFields(o.Fields)
	if err != nil {
		return nil, err
	}
	if o.urlSet {
		if err := urlutil.ValidateURL(o.URL); err != nil {
			return nil, err
		}
	}

	apply := func(cfg models.JobConfig) models.JobConfig {
		if o.urlSet {
			cfg.URL = strings.TrimSpace(o.URL)
		}
		if o.rootSet {
			cfg.RootSelector = o.RootSelector
		}
		if len(fields) > 0 {
			cfg.Fields = fields
		}
		return cfg
	}

	if len(files) == 0 {
		if !o.urlSet && !o.rootSet && len(fields) == 0 {
			return nil, fmt.Errorf("nothing to submit: pass a job file or --url, --root-selector and --field")
		}
		return []batch.Job{{Source: "flags", Config: apply(models.NewJobConfig())}}, nil
	}

	jobs := make([]batch.Job, 0, len(files))
	for _, f := range files {
		cfg, err := jobconfig.LoadFile(f)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, batch.Job{Source: f, Config: apply(cfg)})
	}
	return jobs, nil
}

// parseFields parses repeated name=selector values. The selector may itself contain '='.
func parseFields(values []string) ([]models.FieldExtractor, error) {
	fields := make([]models.FieldExtractor, 0, len(values))
	for _, v := range values {
		name, sel, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --field %q: expected name=selector", v)
		}
		fields = append(fields, models.FieldExtractor{
			Name:     strings.TrimSpace(name),
			Selector: strings.TrimSpace(sel),
		})
	}
	return fields, nil
}

// checkJobs prints lint findings. In strict mode any finding stops the submission.
func checkJobs(w io.Writer, jobs []batch.Job, strict bool) error {
	blocked := 0
	for _, job := range jobs {
		issues := jobconfig.Lint(job.Config)
		if len(issues) == 0 {
			continue
		}
		blocked++
		for _, issue := range issues {
			fmt.Fprintf(w, "%s %s: %s\n", ui.Info("!"), job.Source, issue)
		}
	}
	if strict && blocked > 0 {
		return fmt.Errorf("%d job(s) have lint issues (--strict)", blocked)
	}
	return nil
}

func printBodies(w io.Writer, jobs []batch.Job) error {
	for _, job := range jobs {
		body, err := transform.Encode(job.Config)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", job.Source, err)
		}
		if len(jobs) > 1 {
			fmt.Fprintf(w, "%s\n", ui.Bold("# "+job.Source))
		}
		if err := output.WriteJSON(w, body); err != nil {
			return err
		}
	}
	return nil
}

// backendFor returns the application's backend client, or a dedicated one when custom headers are given
func backendFor(a *app.Application, rawHeaders []string) (backend.Client, error) {
	if len(rawHeaders) == 0 {
		return a.Backend, nil
	}
	headerMap, err := headers.ParseHeaders(rawHeaders)
	if err != nil {
		return nil, err
	}
	return backend.NewClient(a.Config.BackendURL,
		backend.WithTimeout(a.Config.HTTPTimeout),
		backend.WithUserAgent(a.Config.UserAgent),
		backend.WithHeaders(headerMap),
	), nil
}

func submitOne(ctx context.Context, out, errOut io.Writer, client backend.Client, job batch.Job, dest string) error {
	s := session.New(client)
	s.Config.Replace(job.Config)

	cancel := s.Submission.Subscribe(func(state models.SubmissionState) {
		if state.Kind == models.StatePending {
			fmt.Fprintf(errOut, "%s\n", ui.Info("Submitting job..."))
		}
	})
	defer cancel()

	state, _ := s.Submit(ctx)
	log.Debug().
		Str("request_id", state.RequestID).
		Str("state", state.Kind.String()).
		Dur("duration", state.Duration()).
		Msg("Submission settled")

	return render(out, errOut, models.JobOutcome{Source: job.Source, Config: s.Config.Snapshot(), State: state}, dest)
}

func submitBatch(ctx context.Context, out, errOut io.Writer, runner *batch.Runner, jobs []batch.Job, dest string) error {
	log.Debug().Int("jobs", len(jobs)).Int("concurrency", runner.Concurrency()).Msg("Submitting batch")

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSetDescription("Submitting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var outcomes []models.JobOutcome
	for outcome := range runner.Run(ctx, jobs) {
		outcomes = append(outcomes, outcome)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	failed := 0
	for _, outcome := range outcomes {
		if err := render(out, errOut, outcome, batchOutputPath(dest, outcome.Source)); err != nil {
			failed++
		}
	}

	fmt.Fprintf(errOut, "\n%s %d succeeded, %d failed\n", ui.Bold("Summary:"), len(outcomes)-failed, failed)
	if skipped := len(jobs) - len(outcomes); skipped > 0 {
		return fmt.Errorf("%d job(s) were not submitted: %w", skipped, ctx.Err())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(outcomes))
	}
	return nil
}

// batchOutputPath derives one output file per job: results.json + shop.yaml -> results-shop.json
func batchOutputPath(dest, source string) string {
	if dest == "" {
		return ""
	}
	ext := filepath.Ext(dest)
	job := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return strings.TrimSuffix(dest, ext) + "-" + job + ext
}

// render prints a settled outcome. Failures are reported on errOut and returned.
func render(out, errOut io.Writer, outcome models.JobOutcome, dest string) error {
	state := outcome.State
	if state.Kind != models.StateSucceeded {
		berr := backend.Classify(state.Err)
		if berr == nil {
			return fmt.Errorf("%s: submission did not settle", outcome.Source)
		}
		fmt.Fprintf(errOut, "%s %s: %s\n", ui.Error("✗"), outcome.Source, berr.UserMessage())
		return berr
	}

	if dest == "" {
		return output.WriteJSON(out, state.Result)
	}

	var err error
	if strings.EqualFold(filepath.Ext(dest), ".csv") {
		err = output.SaveCSV(state.Result, outcome.Config.Fields, dest)
	} else {
		err = output.SaveJSON(state.Result, dest)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", dest, err)
	}

	log.Info().Str("file", dest).Msg("Output saved")
	fmt.Fprintf(errOut, "%s %s saved to %s\n", ui.Success("✓"), outcome.Source, dest)
	return nil
}
