package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/adiclip/internal/manifest"
)

// DefaultWorkers is the default number of concurrent units.
const DefaultWorkers = 4

// Observer receives unit progress. Methods are called from worker goroutines
// and must be safe for concurrent use.
type Observer interface {
	UnitStateChanged(videoID string, from, to State)
	UnitFinished(res UnitResult)
}

type nopObserver struct{}

func (nopObserver) UnitStateChanged(string, State, State) {}
func (nopObserver) UnitFinished(UnitResult)               {}

// Scheduler runs one unit per video group on a bounded worker pool.
// Within a unit, fetch precedes extraction and extraction precedes reaping.
// Units never coordinate with each other.
type Scheduler struct {
	fetcher   *Fetcher
	extractor *Extractor
	reaper    *Reaper
	workers   int
	stop      <-chan struct{}
	observer  Observer
	logger    *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the maximum number of units in flight. Values below 1 are ignored.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithStop sets a channel whose closing stops dispatch: units not yet started
// are skipped while in-flight units run to completion.
// Canceling the context passed to Run kills in-flight tool invocations instead.
func WithStop(stop <-chan struct{}) SchedulerOption {
	return func(s *Scheduler) { s.stop = stop }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a Scheduler.
func NewScheduler(f *Fetcher, e *Extractor, r *Reaper, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		fetcher:   f,
		extractor: e,
		reaper:    r,
		workers:   DefaultWorkers,
		observer:  nopObserver{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every group and returns the report.
// Per-unit failures never abort the run; results are indexed like groups.
func (s *Scheduler) Run(ctx context.Context, groups []manifest.VideoGroup) *Report {
	report := &Report{
		Units:   make([]UnitResult, len(groups)),
		Started: time.Now(),
	}

	// Plain Group: a failed unit must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, grp := range groups {
		if s.stopping(ctx) {
			report.Units[i] = s.skip(grp)
			continue
		}
		g.Go(func() error {
			report.Units[i] = s.runUnit(ctx, grp)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = time.Now()
	return report
}

// stopping reports whether no new unit should start.
func (s *Scheduler) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// unit tracks the state of one running unit.
type unit struct {
	s   *Scheduler
	res UnitResult
}

func (u *unit) transition(to State) {
	from := u.res.Trace[len(u.res.Trace)-1]
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", from, to))
	}
	u.res.Trace = append(u.res.Trace, to)
	u.s.observer.UnitStateChanged(u.res.VideoID, from, to)
}

func (s *Scheduler) newUnit(grp manifest.VideoGroup) *unit {
	return &unit{s: s, res: UnitResult{
		VideoID:  grp.VideoID,
		Segments: len(grp.Segments),
		Trace:    []State{Pending},
	}}
}

func (s *Scheduler) skip(grp manifest.VideoGroup) UnitResult {
	u := s.newUnit(grp)
	u.transition(Done)
	u.res.Outcome = OutcomeSkipped
	s.observer.UnitFinished(u.res)
	return u.res
}

func (s *Scheduler) runUnit(ctx context.Context, grp manifest.VideoGroup) UnitResult {
	// Dispatch may have blocked on a free slot while the run was stopping.
	if s.stopping(ctx) {
		return s.skip(grp)
	}

	started := time.Now()
	u := s.newUnit(grp)
	log := s.logger.With("video_id", grp.VideoID)

	u.transition(Fetching)
	path, fetched, err := s.fetcher.Ensure(ctx, grp.VideoID)
	u.res.Fetched = fetched
	if err != nil {
		u.res.Err = err
		switch {
		case errors.Is(err, ErrCanceled):
			u.res.Outcome = OutcomeCanceled
		case errors.Is(err, ErrFetchFailed):
			u.transition(FetchFailed)
			u.res.Outcome = OutcomeFetchFailed
			log.Warn("fetch failed", "segments", len(grp.Segments), "error", err)
		default:
			u.res.Outcome = OutcomeFilesystemError
			log.Error("unit aborted", "error", err)
		}
		u.transition(Done)
		return s.finish(u, started)
	}

	u.transition(Extracting)
	// halt ends extraction early: ErrCanceled once ctx is done, ErrFilesystem
	// once a clip cannot be checked on disk. Remaining segments are reported, not dropped.
	var halt error
	for _, seg := range grp.Segments {
		if halt == nil && ctx.Err() != nil {
			halt = ErrCanceled
		}
		if halt != nil {
			u.res.Clips = append(u.res.Clips, ClipResult{
				Segment: seg,
				Path:    s.extractor.ClipPath(seg),
				Err:     fmt.Errorf("%w: %s not attempted", halt, seg.UttID),
			})
			continue
		}
		clip := s.extractor.Extract(ctx, path, seg)
		u.res.Clips = append(u.res.Clips, clip)
		if errors.Is(clip.Err, ErrFilesystem) {
			halt = ErrFilesystem
			log.Error("unit aborted", "utt_id", seg.UttID, "error", clip.Err)
		}
	}

	u.transition(Reaping)
	u.res.ReapErr = s.reaper.Reap(path)
	u.transition(Done)

	u.res.Outcome, u.res.Err = clipsOutcome(u.res.Clips)
	return s.finish(u, started)
}

// clipsOutcome ranks the clip failures of an extracted unit:
// canceled over filesystem error over partial.
func clipsOutcome(clips []ClipResult) (Outcome, error) {
	outcome := OutcomeOK
	var cause error
	for _, c := range clips {
		switch {
		case c.OK():
		case errors.Is(c.Err, ErrCanceled):
			return OutcomeCanceled, c.Err
		case errors.Is(c.Err, ErrFilesystem):
			if outcome != OutcomeFilesystemError {
				outcome, cause = OutcomeFilesystemError, c.Err
			}
		case outcome == OutcomeOK:
			outcome = OutcomePartial
		}
	}
	return outcome, cause
}

func (s *Scheduler) finish(u *unit, started time.Time) UnitResult {
	u.res.Elapsed = time.Since(started)
	s.logger.Info("unit done",
		"video_id", u.res.VideoID,
		"outcome", u.res.Outcome.String(),
		"clips", u.res.ClipsOK(),
		"segments", u.res.Segments,
		"elapsed", u.res.Elapsed)
	s.observer.UnitFinished(u.res)
	return u.res
}
