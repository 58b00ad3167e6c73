// internal/cli/edit.go
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/jobconfig"
	"github.com/law-makers/scrapejob/internal/session"
	"github.com/law-makers/scrapejob/internal/submit"
	"github.com/law-makers/scrapejob/internal/transform"
	"github.com/law-makers/scrapejob/internal/ui"
	"github.com/law-makers/scrapejob/internal/utils/output"
	"github.com/law-makers/scrapejob/pkg/models"
)

var editFile string

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit and submit a job interactively",
	Long: `Starts a line-based editing session. Each line is one command:

  show                  print the job
  url <value>           set the page URL
  root <value>          set the root selector
  add                   append an empty field
  remove <i>            remove field i (field 0 is kept)
  name <i> <value>      set the name of field i
  selector <i> <value>  set the selector of field i
  lint                  report empty or duplicate values
  body                  print the request body
  submit                submit the job in the background
  wait                  wait for the running submission
  status                print the submission state
  quit                  leave the session`,
	Example: `  # Start from a blank job
  scrapejob edit

  # Start from a job file
  scrapejob edit --file job.yaml`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVar(&editFile, "file", "", "Job file to start from")
}

func runEdit(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application is not initialized")
	}

	var initial *models.JobConfig
	if editFile != "" {
		cfg, err := jobconfig.LoadFile(editFile)
		if err != nil {
			return err
		}
		initial = &cfg
	}

	e := newEditor(a.Backend, cmd.OutOrStdout(), initial)
	return e.Run(cmd.Context(), cmd.InOrStdin())
}

// editor drives one session from line commands
type editor struct {
	session *session.Session
	out     *syncWriter

	mu   sync.Mutex
	done <-chan models.SubmissionState
}

// syncWriter serialises writes from the command loop and submission callbacks
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newEditor(client backend.Client, w io.Writer, initial *models.JobConfig) *editor {
	e := &editor{out: &syncWriter{w: w}}
	e.session = session.New(client, submit.WithResultHandler(submit.ResultHandlerFunc(e.showResult)))
	if initial != nil {
		e.session.Config.Replace(*initial)
	}
	e.session.Submission.Subscribe(e.showState)
	return e
}

// Run reads commands from in until quit or end of input. A running submission is awaited before returning.
func (e *editor) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := e.exec(ctx, line); err != nil {
			fmt.Fprintf(e.out, "%s %v\n", ui.Error("✗"), err)
		}
	}
	e.wait()
	return scanner.Err()
}

func (e *editor) exec(ctx context.Context, line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	store := e.session.Config

	switch verb {
	case "show":
		e.show(store.Snapshot())
	case "url":
		store.SetURL(rest)
	case "root":
		store.SetRootSelector(rest)
	case "add":
		cfg := store.AddField()
		fmt.Fprintf(e.out, "added field %d\n", len(cfg.Fields)-1)
	case "remove":
		i, err := e.index(rest)
		if err != nil {
			return err
		}
		if i == 0 {
			return fmt.Errorf("the first field cannot be removed")
		}
		store.RemoveField(i)
	case "name", "selector":
		idx, value, _ := strings.Cut(rest, " ")
		i, err := e.index(idx)
		if err != nil {
			return err
		}
		store.UpdateField(i, models.FieldProperty(verb), strings.TrimSpace(value))
	case "lint":
		issues := e.session.Lint()
		if len(issues) == 0 {
			fmt.Fprintf(e.out, "%s no issues\n", ui.Success("✓"))
		}
		for _, issue := range issues {
			fmt.Fprintf(e.out, "%s %s\n", ui.Info("!"), issue)
		}
	case "body":
		body, err := transform.Encode(store.Snapshot())
		if err != nil {
			return err
		}
		return output.WriteJSON(e.out, body)
	case "submit":
		done, ok := e.session.SubmitAsync(ctx)
		if !ok {
			return fmt.Errorf("a submission is already pending")
		}
		e.mu.Lock()
		e.done = done
		e.mu.Unlock()
	case "wait":
		e.wait()
	case "status":
		state := e.session.Submission.State()
		fmt.Fprintf(e.out, "%s", ui.State(state.Kind.String()))
		if state.Kind.Settled() {
			fmt.Fprintf(e.out, " in %s", state.Duration())
		}
		fmt.Fprintln(e.out)
	case "help":
		fmt.Fprintln(e.out, "commands: show url root add remove name selector lint body submit wait status quit")
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
	return nil
}

// index parses a field index and checks it against the current configuration
func (e *editor) index(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid field index %q", s)
	}
	if n := len(e.session.Config.Snapshot().Fields); i < 0 || i >= n {
		return 0, fmt.Errorf("no field %d (have %d)", i, n)
	}
	return i, nil
}

func (e *editor) wait() {
	e.mu.Lock()
	done := e.done
	e.done = nil
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *editor) show(cfg models.JobConfig) {
	fmt.Fprintf(e.out, "%s %s\n", ui.Bold("url: "), cfg.URL)
	fmt.Fprintf(e.out, "%s %s\n", ui.Bold("root:"), cfg.RootSelector)
	for i, f := range cfg.Fields {
		fmt.Fprintf(e.out, "  [%d] %s = %s\n", i, f.Name, f.Selector)
	}
}

func (e *editor) showState(state models.SubmissionState) {
	switch state.Kind {
	case models.StatePending:
		fmt.Fprintf(e.out, "%s\n", ui.Info("Submitting job..."))
	case models.StateFailed:
		fmt.Fprintf(e.out, "%s %s\n", ui.Error("✗"), backend.Classify(state.Err).UserMessage())
	}
}

func (e *editor) showResult(payload json.RawMessage, cfg models.JobConfig) {
	fmt.Fprintf(e.out, "%s result for %s\n", ui.Success("✓"), cfg.URL)
	_ = output.WriteJSON(e.out, payload)
}
