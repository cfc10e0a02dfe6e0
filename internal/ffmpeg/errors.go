package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrExtractFailed indicates ffmpeg exited with an error while cutting a clip.
var ErrExtractFailed = errors.New("clip extraction failed")

// ErrTimeout is returned when an ffmpeg invocation exceeds its time budget.
var ErrTimeout = errors.New("ffmpeg did not exit within timeout")
