package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/shiroemons/go-vnunpack/internal/unpack/interfaces"
	"github.com/shiroemons/go-vnunpack/pkg/vnarc"
)

// MockArchiveExtractor はArchiveExtractorのモック実装です
type MockArchiveExtractor struct {
	Summaries map[string]interfaces.Summary
	Listings  map[string]interfaces.Listing
	Errors    map[string]error

	mu        sync.Mutex
	Extracted []string
	Listed    []string
}

// NewMockArchiveExtractor は新しいMockArchiveExtractorを作成します
func NewMockArchiveExtractor() *MockArchiveExtractor {
	return &MockArchiveExtractor{
		Summaries: make(map[string]interfaces.Summary),
		Listings:  make(map[string]interfaces.Listing),
		Errors:    make(map[string]error),
	}
}

// Extract はモック実装です
func (m *MockArchiveExtractor) Extract(ctx context.Context, archivePath string, saver vnarc.Saver) (interfaces.Summary, error) {
	m.mu.Lock()
	m.Extracted = append(m.Extracted, archivePath)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return interfaces.Summary{}, err
	}
	if err := m.Errors[archivePath]; err != nil {
		return interfaces.Summary{Archive: archivePath}, err
	}
	s, ok := m.Summaries[archivePath]
	if !ok {
		s = interfaces.Summary{Archive: archivePath}
	}
	return s, nil
}

// List はモック実装です
func (m *MockArchiveExtractor) List(ctx context.Context, archivePath string) (interfaces.Listing, error) {
	m.mu.Lock()
	m.Listed = append(m.Listed, archivePath)
	m.mu.Unlock()

	if err := m.Errors[archivePath]; err != nil {
		return interfaces.Listing{}, err
	}
	l, ok := m.Listings[archivePath]
	if !ok {
		l = interfaces.Listing{Archive: archivePath}
	}
	return l, nil
}

// MockComposer はComposerのモック実装です
type MockComposer struct {
	Error error
	Calls int
}

// Compose はモック実装です
func (m *MockComposer) Compose(sprite, palette, mask []byte) (image.Image, error) {
	m.Calls++
	if m.Error != nil {
		return nil, m.Error
	}
	return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
}
