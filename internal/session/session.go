// Package session pairs a job configuration store with its submission controller.
package session

import (
	"context"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/jobconfig"
	"github.com/law-makers/scrapejob/internal/submit"
	"github.com/law-makers/scrapejob/pkg/models"
)

// Session is one editing session: its own configuration and its own submission lifecycle.
// Sessions share nothing with each other.
type Session struct {
	Config     *jobconfig.Store
	Submission *submit.Controller
}

// New creates a session with a blank configuration that submits through client
func New(client backend.Client, opts ...submit.Option) *Session {
	return &Session{
		Config:     jobconfig.NewStore(),
		Submission: submit.New(client, opts...),
	}
}

// Submit sends the current configuration snapshot.
// Edits made after this call only affect the next submission.
func (s *Session) Submit(ctx context.Context) (models.SubmissionState, bool) {
	return s.Submission.Submit(ctx, s.Config.Snapshot())
}

// SubmitAsync is the non-blocking form of Submit
func (s *Session) SubmitAsync(ctx context.Context) (<-chan models.SubmissionState, bool) {
	return s.Submission.SubmitAsync(ctx, s.Config.Snapshot())
}

// Lint reports advisory issues in the current configuration
func (s *Session) Lint() []jobconfig.Issue {
	return jobconfig.Lint(s.Config.Snapshot())
}
