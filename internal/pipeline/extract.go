package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/adiclip/internal/manifest"
)

// DefaultClipExt is the default audio container of extracted clips.
const DefaultClipExt = "wav"

// ClipResult is the outcome of one segment.
type ClipResult struct {
	Segment manifest.Segment
	Path    string
	Err     error // nil on success
	Elapsed time.Duration
}

// OK reports whether the clip was produced.
func (c ClipResult) OK() bool {
	return c.Err == nil
}

// Extractor cuts clips for segments of a fetched video.
type Extractor struct {
	tool      ClipExtractor
	outputDir string
	ext       string
	fs        fileSystem
	logger    *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithClipExt sets the clip file extension (and so the container ffmpeg writes).
func WithClipExt(ext string) ExtractorOption {
	return func(e *Extractor) { e.ext = strings.TrimPrefix(ext, ".") }
}

// WithExtractorFileSystem sets the filesystem implementation (for testing).
func WithExtractorFileSystem(fsys fileSystem) ExtractorOption {
	return func(e *Extractor) { e.fs = fsys }
}

// WithExtractorLogger sets the logger.
func WithExtractorLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an Extractor writing clips to outputDir.
func NewExtractor(tool ClipExtractor, outputDir string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		tool:      tool,
		outputDir: outputDir,
		ext:       DefaultClipExt,
		fs:        osFileSystem{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClipPath returns the output path of a segment.
func (e *Extractor) ClipPath(seg manifest.Segment) string {
	return filepath.Join(e.outputDir, seg.ClipName(e.ext))
}

// Extract cuts one segment out of videoPath. Failures are returned in the
// result, never raised: sibling segments are unaffected.
//
// A successful tool exit without an output file is a failure (ErrOutputMissing).
// A clip left behind by a failed or interrupted tool run is removed, since it
// may be truncated. A clip the tool completed is kept even if ctx is canceled
// right after.
func (e *Extractor) Extract(ctx context.Context, videoPath string, seg manifest.Segment) ClipResult {
	started := time.Now()
	res := ClipResult{Segment: seg, Path: e.ClipPath(seg)}

	if err := manifest.ValidateID(seg.ClipName(e.ext)); err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrExtractFailed, seg.UttID, err)
		e.logger.Warn("segment failed", "utt_id", seg.UttID, "video_id", seg.VideoID, "error", res.Err)
		return res
	}

	err := e.tool.ExtractClip(ctx, videoPath, seg.Start, seg.Duration(), res.Path)
	switch {
	case err != nil && ctx.Err() != nil:
		e.discard(res.Path)
		res.Err = fmt.Errorf("%w: extract %s: %w", ErrCanceled, seg.UttID, ctx.Err())
	case err != nil:
		e.discard(res.Path)
		res.Err = fmt.Errorf("%w: %s: %w", ErrExtractFailed, seg.UttID, err)
	default:
		if _, statErr := e.fs.Stat(res.Path); statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				res.Err = fmt.Errorf("%w: %s: %w", ErrExtractFailed, seg.UttID, ErrOutputMissing)
			} else {
				res.Err = fmt.Errorf("%w: stat %s: %w", ErrFilesystem, res.Path, statErr)
			}
		}
	}
	res.Elapsed = time.Since(started)

	if res.Err != nil && !errors.Is(res.Err, ErrCanceled) {
		e.logger.Warn("segment failed",
			"utt_id", seg.UttID, "video_id", seg.VideoID, "label", seg.Label, "error", res.Err)
	} else if res.Err == nil {
		e.logger.Debug("segment extracted",
			"utt_id", seg.UttID, "label", seg.Label, "path", res.Path, "elapsed", res.Elapsed)
	}
	return res
}

func (e *Extractor) discard(path string) {
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn("cannot remove partial clip", "path", path, "error", err)
	}
}
