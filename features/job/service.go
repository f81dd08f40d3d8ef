package job

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

var (
	ErrInvalidURL     = errors.New("invalid URL")
	ErrNotCancellable = errors.New("job is not in a cancellable state")
)

// Runner starts the asynchronous pipeline run for a freshly queued job.
// Dispatch must not block on pipeline completion.
type Runner interface {
	Dispatch(j *Job)
}

// Broadcaster publishes lifecycle events to observers. All methods are
// fire-and-forget; publish failures never affect persisted job state.
type Broadcaster interface {
	JobCreated(ctx context.Context, id, jobURL string)
	JobCancelled(ctx context.Context, id string)
}

type Service struct {
	repo   Repository
	runner Runner
	events Broadcaster
}

func NewService(repo Repository, runner Runner, events Broadcaster) *Service {
	return &Service{repo: repo, runner: runner, events: events}
}

// Submit validates the URL, persists a queued job and hands it to the
// runner. The returned job reflects the initial queued state; the pipeline
// advances it asynchronously.
func (s *Service) Submit(ctx context.Context, rawURL string) (*Job, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	j := &Job{ID: uuid.New().String(), URL: rawURL}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}

	s.events.JobCreated(ctx, j.ID, j.URL)
	s.runner.Dispatch(j)
	return j, nil
}

// SubmitBatch validates every URL before enqueuing any. Jobs run
// independently; one failing does not affect its siblings.
func (s *Service) SubmitBatch(ctx context.Context, rawURLs []string) ([]*Job, error) {
	if len(rawURLs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidURL)
	}
	for _, u := range rawURLs {
		if err := validateURL(u); err != nil {
			return nil, err
		}
	}

	jobs := make([]*Job, 0, len(rawURLs))
	for _, u := range rawURLs {
		j, err := s.Submit(ctx, u)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Cancel marks a still-pending job as failed with a cancellation message.
// Jobs that already entered chunking or embedding cannot be cancelled and
// the request is rejected with ErrNotCancellable.
func (s *Service) Cancel(ctx context.Context, id string) error {
	ok, err := s.repo.CancelIfPending(ctx, id, CancelledMessage)
	if err != nil {
		return err
	}
	if !ok {
		// Distinguish unknown job from a lost race.
		if _, err := s.repo.Get(ctx, id); err != nil {
			return err
		}
		return ErrNotCancellable
	}

	s.events.JobCancelled(ctx, id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %s (must be absolute)", ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}
