package services

import (
	"context"
	"fmt"
	"io"

	"github.com/donmikel/lanshare/applications/server"
	"github.com/donmikel/lanshare/applications/server/domain"
	"github.com/donmikel/lanshare/applications/server/interfaces"
	"github.com/donmikel/lanshare/applications/server/upload"
)

type service struct {
	registry interfaces.FileRegistry
}

func NewService(registry interfaces.FileRegistry) server.FileService {
	return &service{
		registry: registry,
	}
}

func (s *service) ListFiles(ctx context.Context) ([]string, error) {
	names, err := s.registry.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list files: %w", err)
	}

	return names, nil
}

// PutFile parses a fully buffered multipart body and stores its file.
// Nothing is written unless parsing succeeds.
func (s *service) PutFile(ctx context.Context, boundary string, body []byte) (domain.Upload, error) {
	up, err := upload.Parse(body, boundary)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("can't parse upload: %w", err)
	}

	if err = s.registry.StoreFile(ctx, up.Name, up.Content); err != nil {
		return domain.Upload{}, fmt.Errorf("can't store file %q: %w", up.Name, err)
	}

	return up, nil
}

func (s *service) GetFile(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := sanitize(name)
	if err != nil {
		return nil, err
	}

	body, err := s.registry.ReadFile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("can't read file %q: %w", name, err)
	}

	return body, nil
}

func (s *service) DeleteFile(ctx context.Context, name string) error {
	name, err := sanitize(name)
	if err != nil {
		return err
	}

	if err = s.registry.DeleteFile(ctx, name); err != nil {
		return fmt.Errorf("can't delete file %q: %w", name, err)
	}

	return nil
}

func sanitize(name string) (string, error) {
	base := upload.Basename(name)
	if base == "" {
		return "", fmt.Errorf("%w: invalid name %q", domain.ErrNotFound, name)
	}

	return base, nil
}
