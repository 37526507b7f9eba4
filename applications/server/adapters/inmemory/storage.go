package inmemory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/lanshare/applications/server/domain"
	"github.com/donmikel/lanshare/applications/server/interfaces"
)

const defaultFreeSpaceInBytes = 100 * 1024 * 1024 // 100 Mb

type inMemoryRegistry struct {
	dataByName map[string][]byte
	// names keeps insertion order so listings are stable.
	names     []string
	freeSpace int
	log       log.Logger
	mutex     sync.RWMutex
}

func NewRegistry(logger log.Logger) interfaces.FileRegistry {
	return &inMemoryRegistry{
		log:        logger,
		dataByName: map[string][]byte{},
		names:      []string{},
		freeSpace:  defaultFreeSpaceInBytes,
	}
}

func (m *inMemoryRegistry) ListFiles(ctx context.Context) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]string, len(m.names))
	copy(result, m.names)

	return result, nil
}

func (m *inMemoryRegistry) StoreFile(ctx context.Context, name string, content []byte) error {
	data := make([]byte, len(content))
	copy(data, content)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	old, exists := m.dataByName[name]
	if len(data)-len(old) > m.freeSpace {
		return fmt.Errorf("%w: not enough free space", domain.ErrWriteFailure)
	}

	m.dataByName[name] = data
	m.freeSpace -= len(data) - len(old)
	if !exists {
		m.names = append(m.names, name)
	}

	level.Info(m.log).Log("msg", "file stored",
		"name", name,
		"size", humanize.Bytes(uint64(len(data))),
		"free_space", humanize.Bytes(uint64(m.freeSpace)),
	)

	return nil
}

func (m *inMemoryRegistry) ReadFile(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	data, ok := m.dataByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *inMemoryRegistry) DeleteFile(ctx context.Context, name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, ok := m.dataByName[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}

	delete(m.dataByName, name)
	m.freeSpace += len(data)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}

	return nil
}
