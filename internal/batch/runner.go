// Package batch submits many job configurations concurrently, one session per job.
package batch

import (
	"context"
	"sync"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/session"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// Job is one configuration to submit. Source names where it came from, usually a file path.
type Job struct {
	Source string
	Config models.JobConfig
}

// Runner submits jobs through a shared backend client with bounded concurrency
type Runner struct {
	client      backend.Client
	concurrency int
}

// New creates a Runner. If concurrency <= 0, it is derived from system resources.
func New(client backend.Client, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = OptimalConcurrency()
	}
	return &Runner{
		client:      client,
		concurrency: concurrency,
	}
}

// Concurrency returns the maximum number of submissions in flight
func (r *Runner) Concurrency() int {
	return r.concurrency
}

// Run submits every job in its own session and emits one outcome per job.
// The channel is closed once all started jobs have settled. Jobs not yet started
// when ctx is cancelled are skipped.
func (r *Runner) Run(ctx context.Context, jobs []Job) <-chan models.JobOutcome {
	results := make(chan models.JobOutcome, len(jobs))
	domains, groups := GroupByDomain(jobs)

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		sem := make(chan struct{}, r.concurrency)

	loop:
		for _, domain := range domains {
			log.Debug().
				Str("domain", domain).
				Int("jobs", len(groups[domain])).
				Msg("Submitting domain group")

			for _, job := range groups[domain] {
				if ctx.Err() != nil {
					break loop
				}
				select {
				case <-ctx.Done():
					break loop
				case sem <- struct{}{}:
				}

				wg.Add(1)
				go func(j Job) {
					defer wg.Done()
					defer func() { <-sem }()
					results <- r.submit(ctx, j)
				}(job)
			}
		}

		wg.Wait()
	}()

	return results
}

func (r *Runner) submit(ctx context.Context, job Job) models.JobOutcome {
	s := session.New(r.client)
	cfg := s.Config.Replace(job.Config)
	state, _ := s.Submit(ctx)

	return models.JobOutcome{
		Source: job.Source,
		Config: cfg,
		State:  state,
	}
}
