package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/alnah/adiclip/internal/format"
	"github.com/alnah/adiclip/internal/pipeline"
)

// progressObserver reports unit progress while the scheduler runs.
// Log output shares the terminal with the progress display and goes through LogWriter.
type progressObserver interface {
	pipeline.Observer
	LogWriter() io.Writer
	Finish()
}

// newProgress picks a progress bar on a terminal and one line per unit otherwise.
func newProgress(env *Env, units int) progressObserver {
	if env.IsTerminal != nil && env.IsTerminal(env.Stderr) {
		return newBarProgress(env.Stderr, units)
	}
	return newLineProgress(env.Stderr, units)
}

// barProgress drives a terminal progress bar. Log lines are printed above it.
type barProgress struct {
	mu       sync.Mutex
	w        io.Writer
	bar      *progressbar.ProgressBar
	finished bool
}

func newBarProgress(w io.Writer, units int) *barProgress {
	return &barProgress{w: w, bar: progressbar.NewOptions(units,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("videos"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *barProgress) UnitStateChanged(videoID string, _, to pipeline.State) {
	if to == pipeline.Fetching || to == pipeline.Extracting {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.bar.Describe(fmt.Sprintf("%-10s %s", to, videoID))
	}
}

func (p *barProgress) UnitFinished(pipeline.UnitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Add(1)
}

func (p *barProgress) LogWriter() io.Writer { return p }

// Write clears the bar, prints b on its own line and redraws the bar below it.
func (p *barProgress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return p.w.Write(b)
	}
	_ = p.bar.Clear()
	n, err := p.w.Write(b)
	_ = p.bar.RenderBlank()
	return n, err
}

func (p *barProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
	_ = p.bar.Finish()
}

// lineProgress writes one line per finished unit, for logs and pipes.
type lineProgress struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	done  int
}

func newLineProgress(w io.Writer, units int) *lineProgress {
	return &lineProgress{w: w, total: units}
}

func (p *lineProgress) UnitStateChanged(string, pipeline.State, pipeline.State) {}

func (p *lineProgress) UnitFinished(res pipeline.UnitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprintf(p.w, "[%s] %s %s: %s of %d in %s\n",
		format.Ratio(p.done, p.total),
		res.VideoID,
		res.Outcome,
		format.Count(res.ClipsOK(), "clip", "clips"),
		res.Segments,
		format.Duration(res.Elapsed))
}

func (p *lineProgress) LogWriter() io.Writer { return p }

// Write keeps log lines from interleaving with progress lines.
func (p *lineProgress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Write(b)
}

func (p *lineProgress) Finish() {}

// Compile-time interface verification.
var (
	_ progressObserver = (*barProgress)(nil)
	_ progressObserver = (*lineProgress)(nil)
)
