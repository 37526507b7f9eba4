package interfaces

import (
	"context"
	"io"
)

// FileRegistry keeps uploaded files under a flat namespace of basenames.
// Callers pass already sanitised names; implementations do not re-validate them.
type FileRegistry interface {
	ListFiles(ctx context.Context) ([]string, error)
	StoreFile(ctx context.Context, name string, content []byte) error
	ReadFile(ctx context.Context, name string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, name string) error
}
