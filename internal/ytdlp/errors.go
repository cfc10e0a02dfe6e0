package ytdlp

import "errors"

// ErrNotFound indicates the yt-dlp binary could not be located.
var ErrNotFound = errors.New("yt-dlp not found")

// ErrFetchFailed indicates yt-dlp exited with an error.
var ErrFetchFailed = errors.New("video fetch failed")

// ErrTimeout is returned when a yt-dlp invocation exceeds its time budget.
var ErrTimeout = errors.New("yt-dlp did not exit within timeout")
