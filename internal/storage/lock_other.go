//go:build !unix

package storage

// fileLock is a no-op where flock(2) is unavailable.
type fileLock struct{}

func lockFile(string) (*fileLock, error) { return &fileLock{}, nil }

func (l *fileLock) release() error { return nil }
