package ffmpeg

import (
	"errors"
	"os"
	"time"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockFileStatter struct {
	stat func(name string) (os.FileInfo, error)
}

func (m *mockFileStatter) Stat(name string) (os.FileInfo, error) {
	if m.stat != nil {
		return m.stat(name)
	}
	return nil, os.ErrNotExist
}

type mockEnvProvider struct {
	getenv   func(key string) string
	lookPath func(file string) (string, error)
}

func (m *mockEnvProvider) Getenv(key string) string {
	if m.getenv != nil {
		return m.getenv(key)
	}
	return ""
}

func (m *mockEnvProvider) LookPath(file string) (string, error) {
	if m.lookPath != nil {
		return m.lookPath(file)
	}
	return "", errors.New("not found")
}

type mockFileInfo struct {
	name string
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return 0 }
func (m mockFileInfo) Mode() os.FileMode  { return 0755 }
func (m mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m mockFileInfo) IsDir() bool        { return false }
func (m mockFileInfo) Sys() any           { return nil }
