package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/adiclip/internal/manifest"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	seg := manifest.Segment{UttID: "u1", VideoID: "V1", Start: 1.5, End: 4, Label: "EGY"}

	t.Run("writes clip named after utterance and label", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tool := &fakeExtractor{}
		e := NewExtractor(tool, dir)

		res := e.Extract(context.Background(), "V1.mp4", seg)
		if !res.OK() {
			t.Fatalf("Extract() err = %v", res.Err)
		}
		want := filepath.Join(dir, "u1_EGY.wav")
		if res.Path != want {
			t.Errorf("Path = %q, want %q", res.Path, want)
		}
		calls := tool.Calls()
		if len(calls) != 1 {
			t.Fatalf("tool calls = %d, want 1", len(calls))
		}
		if calls[0].start != 1.5 || calls[0].duration != 2.5 {
			t.Errorf("start, duration = %v, %v, want 1.5, 2.5", calls[0].start, calls[0].duration)
		}
		if calls[0].src != "V1.mp4" {
			t.Errorf("src = %q, want V1.mp4", calls[0].src)
		}
	})

	t.Run("custom extension", func(t *testing.T) {
		t.Parallel()
		e := NewExtractor(&fakeExtractor{}, "out", WithClipExt(".flac"))
		if got, want := e.ClipPath(seg), filepath.Join("out", "u1_EGY.flac"); got != want {
			t.Errorf("ClipPath() = %q, want %q", got, want)
		}
	})

	t.Run("overwrites existing clip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "u1_EGY.wav")
		if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
		res := NewExtractor(&fakeExtractor{}, dir).Extract(context.Background(), "V1.mp4", seg)
		if !res.OK() {
			t.Fatalf("Extract() err = %v", res.Err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "clip" {
			t.Errorf("clip content = %q, want overwritten", data)
		}
	})

	t.Run("tool failure", func(t *testing.T) {
		t.Parallel()
		tool := &fakeExtractor{fail: map[string]error{"u1_EGY.wav": errTool}}
		res := NewExtractor(tool, t.TempDir()).Extract(context.Background(), "V1.mp4", seg)
		if !errors.Is(res.Err, ErrExtractFailed) || !errors.Is(res.Err, errTool) {
			t.Errorf("Extract() err = %v, want ErrExtractFailed wrapping tool error", res.Err)
		}
	})

	t.Run("success without output is a failure", func(t *testing.T) {
		t.Parallel()
		tool := &fakeExtractor{noOutput: map[string]bool{"u1_EGY.wav": true}}
		res := NewExtractor(tool, t.TempDir()).Extract(context.Background(), "V1.mp4", seg)
		if !errors.Is(res.Err, ErrExtractFailed) || !errors.Is(res.Err, ErrOutputMissing) {
			t.Errorf("Extract() err = %v, want ErrExtractFailed and ErrOutputMissing", res.Err)
		}
	})

	t.Run("cancellation removes partial clip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		tool := &fakeExtractor{hook: func(dest string) {
			_ = os.WriteFile(dest, []byte("trunc"), 0o644)
			cancel()
		}}
		res := NewExtractor(tool, dir).Extract(ctx, "V1.mp4", seg)
		if !errors.Is(res.Err, ErrCanceled) {
			t.Fatalf("Extract() err = %v, want ErrCanceled", res.Err)
		}
		if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
			t.Errorf("partial clip still present: %v", err)
		}
	})

	t.Run("stat error is a filesystem error", func(t *testing.T) {
		t.Parallel()
		fsys := &mockFileSystem{stat: func(string) (os.FileInfo, error) { return nil, os.ErrPermission }}
		res := NewExtractor(&fakeExtractor{}, t.TempDir(), WithExtractorFileSystem(fsys)).
			Extract(context.Background(), "V1.mp4", seg)
		if !errors.Is(res.Err, ErrFilesystem) {
			t.Errorf("Extract() err = %v, want ErrFilesystem", res.Err)
		}
	})

	t.Run("tool failure removes truncated clip", func(t *testing.T) {
		t.Parallel()
		tool := &fakeExtractor{
			fail: map[string]error{"u1_EGY.wav": errTool},
			hook: func(dest string) { _ = os.WriteFile(dest, []byte("trunc"), 0o644) },
		}
		res := NewExtractor(tool, t.TempDir()).Extract(context.Background(), "V1.mp4", seg)
		if !errors.Is(res.Err, ErrExtractFailed) {
			t.Fatalf("Extract() err = %v, want ErrExtractFailed", res.Err)
		}
		if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
			t.Errorf("truncated clip still present: %v", err)
		}
	})

	t.Run("clip finished before cancellation is kept", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		tool := clipFunc(func(_ context.Context, _ string, _, _ float64, dest string) error {
			err := os.WriteFile(dest, []byte("clip"), 0o644)
			cancel()
			return err
		})
		res := NewExtractor(tool, t.TempDir()).Extract(ctx, "V1.mp4", seg)
		if !res.OK() {
			t.Fatalf("Extract() err = %v, want success", res.Err)
		}
		if _, err := os.Stat(res.Path); err != nil {
			t.Errorf("completed clip removed: %v", err)
		}
	})

	t.Run("unsafe clip name is rejected before the tool runs", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		out := filepath.Join(root, "out")
		tool := &fakeExtractor{}
		bad := manifest.Segment{UttID: "../escaped", VideoID: "V1", Start: 0, End: 1, Label: "EGY"}

		res := NewExtractor(tool, out).Extract(context.Background(), "V1.mp4", bad)
		if !errors.Is(res.Err, ErrExtractFailed) || !errors.Is(res.Err, manifest.ErrUnsafeID) {
			t.Errorf("Extract() err = %v, want ErrExtractFailed and ErrUnsafeID", res.Err)
		}
		if n := len(tool.Calls()); n != 0 {
			t.Errorf("tool calls = %d, want 0", n)
		}
		if _, err := os.Stat(filepath.Join(root, "escaped_EGY.wav")); !os.IsNotExist(err) {
			t.Errorf("clip written outside the output dir: %v", err)
		}
	})
}

// clipFunc adapts a function to ClipExtractor.
type clipFunc func(ctx context.Context, src string, start, duration float64, dest string) error

func (f clipFunc) ExtractClip(ctx context.Context, src string, start, duration float64, dest string) error {
	return f(ctx, src, start, duration, dest)
}
