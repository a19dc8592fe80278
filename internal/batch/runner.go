package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"doiupdate/internal/doi"
	"doiupdate/internal/logging"
	"doiupdate/internal/updater"
)

var (
	// ErrLocked reports that another batch run holds the lock.
	ErrLocked = errors.New("another batch run is in progress")
	// ErrFailures reports that at least one DOI failed in a keep-going run.
	ErrFailures = errors.New("batch finished with failures")
)

// Processor retargets one file DOI.
type Processor interface {
	RetargetFileDOI(ctx context.Context, fileDOI string) (updater.Result, error)
}

// Status is the per-DOI outcome of a run.
type Status string

const (
	StatusUpdated    Status = "updated"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusNotStarted Status = "not_started"
)

// Item reports what happened to one input DOI.
type Item struct {
	FileDOI string
	Dataset string
	Status  Status
	Result  updater.Result
	Err     error
}

// Summary collects the outcome of a run.
type Summary struct {
	RunID string
	Items []Item
}

// Count returns how many items ended with status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, item := range s.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Options configures a Runner.
type Options struct {
	LockPath  string
	KeepGoing bool
	Logger    *slog.Logger
}

// Runner processes DOI lists sequentially.
type Runner struct {
	processor Processor
	lock      *flock.Flock
	keepGoing bool
	logger    *slog.Logger
}

// NewRunner builds a Runner. An empty LockPath disables locking.
func NewRunner(processor Processor, opts Options) *Runner {
	r := &Runner{
		processor: processor,
		keepGoing: opts.KeepGoing,
		logger:    logging.NewComponentLogger(opts.Logger, "batch"),
	}
	if opts.LockPath != "" {
		r.lock = flock.New(opts.LockPath)
	}
	return r
}

// Run retargets every DOI in order and returns the per-DOI summary. The
// returned error is the first failure, or ErrFailures when KeepGoing let the
// run finish despite failures.
func (r *Runner) Run(ctx context.Context, fileDOIs []string) (Summary, error) {
	if r.processor == nil {
		return Summary{}, errors.New("batch runner requires a processor")
	}
	runID, err := uuid.NewV7()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := Summary{RunID: runID.String(), Items: make([]Item, len(fileDOIs))}
	for i, fileDOI := range fileDOIs {
		summary.Items[i] = Item{FileDOI: fileDOI, Dataset: doi.DatasetDOI(fileDOI), Status: StatusNotStarted}
	}

	unlock, err := r.acquire()
	if err != nil {
		return summary, err
	}
	defer unlock()

	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started", logging.Int("dois", len(fileDOIs)), logging.Bool("keep_going", r.keepGoing))

	var firstErr error
	for i := range summary.Items {
		item := &summary.Items[i]
		if err := ctx.Err(); err != nil {
			firstErr = err
			break
		}

		result, err := r.processor.RetargetFileDOI(ctx, item.FileDOI)
		item.Result = result
		switch {
		case err == nil:
			item.Status = StatusUpdated
		case errors.Is(err, doi.ErrNoUpdate):
			item.Status = StatusSkipped
		default:
			item.Status = StatusFailed
			item.Err = err
			logger.Warn("doi failed", logging.DOI(item.FileDOI), logging.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", item.FileDOI, err)
			}
		}
		if item.Status == StatusFailed && !r.keepGoing {
			break
		}
	}

	logger.Info("batch finished",
		logging.Int(string(StatusUpdated), summary.Count(StatusUpdated)),
		logging.Int(string(StatusSkipped), summary.Count(StatusSkipped)),
		logging.Int(string(StatusFailed), summary.Count(StatusFailed)),
		logging.Int(string(StatusNotStarted), summary.Count(StatusNotStarted)),
	)

	if firstErr != nil && r.keepGoing && ctx.Err() == nil {
		return summary, fmt.Errorf("%w: %d of %d failed, first: %w", ErrFailures, summary.Count(StatusFailed), len(fileDOIs), firstErr)
	}
	return summary, firstErr
}

func (r *Runner) acquire() (func(), error) {
	if r.lock == nil {
		return func() {}, nil
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, r.lock.Path())
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release batch lock", logging.Error(err))
		}
	}, nil
}
