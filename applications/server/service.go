package server

import (
	"context"
	"io"

	"github.com/donmikel/lanshare/applications/server/domain"
)

type FileService interface {
	ListFiles(ctx context.Context) ([]string, error)
	PutFile(ctx context.Context, boundary string, body []byte) (domain.Upload, error)
	GetFile(ctx context.Context, name string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, name string) error
}
