// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Scratchpad size limits.
const (
	// MaxEntryBytes caps one entry's content.
	MaxEntryBytes = 1 << 20 // 1 MB

	// MaxTotalBytes caps the whole store (uncompressed sizes).
	MaxTotalBytes = 100 << 20 // 100 MB

	// compressionThreshold is the minimum content size that triggers
	// zstd compression of the stored bytes.
	compressionThreshold = 1024 // 1 KB
)

// Scratchpad errors.
var (
	ErrEntryTooLarge = fmt.Errorf("scratchpad: entry exceeds %d bytes", MaxEntryBytes)
	ErrStoreFull     = fmt.Errorf("scratchpad: store exceeds %d bytes", MaxTotalBytes)
	ErrNotFound      = errors.New("scratchpad: entry not found")
)

// ScratchpadEntry is one stored document. Content is held compressed
// when that wins; Size always reports the uncompressed length.
type ScratchpadEntry struct {
	Path       string
	Title      string
	Size       int
	Version    int64
	Checksum   string
	CreatedBy  string
	UpdatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	compressed bool
	content    []byte
}

// ScratchpadSummary is the listing view of an entry.
type ScratchpadSummary struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Size      int       `json:"size"`
	Version   int64     `json:"version"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scratchpad is the swarm-wide shared document store: hierarchical paths
// to text entries, any agent may read or write. One lock covers the map;
// entries carry versions so writers can see they raced.
type Scratchpad struct {
	mu      sync.RWMutex
	entries map[string]*ScratchpadEntry
	total   int64

	logger  *zap.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewScratchpad creates an empty scratchpad. A nil logger defaults to
// no-op.
func NewScratchpad(logger *zap.Logger) (*Scratchpad, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("scratchpad: zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("scratchpad: zstd decoder: %w", err)
	}

	return &Scratchpad{
		entries: make(map[string]*ScratchpadEntry),
		logger:  logger,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Write stores content at path, replacing any existing entry.
func (s *Scratchpad) Write(agent, path, title, content string) (*ScratchpadEntry, error) {
	if path == "" {
		return nil, errors.New("scratchpad: path cannot be empty")
	}
	raw := []byte(content)
	if len(raw) > MaxEntryBytes {
		return nil, ErrEntryTooLarge
	}

	stored := raw
	compressed := false
	if len(raw) >= compressionThreshold {
		packed := s.encoder.EncodeAll(raw, nil)
		if len(packed) < len(raw) {
			stored = packed
			compressed = true
		}
	}

	hash := sha256.Sum256(raw)
	checksum := hex.EncodeToString(hash[:])
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.entries[path]
	newTotal := s.total + int64(len(raw))
	if exists {
		newTotal -= int64(existing.Size)
	}
	if newTotal > MaxTotalBytes {
		return nil, ErrStoreFull
	}

	entry := &ScratchpadEntry{
		Path:       path,
		Title:      title,
		Size:       len(raw),
		Version:    1,
		Checksum:   checksum,
		CreatedBy:  agent,
		UpdatedBy:  agent,
		CreatedAt:  now,
		UpdatedAt:  now,
		compressed: compressed,
		content:    stored,
	}
	if exists {
		entry.Version = existing.Version + 1
		entry.CreatedBy = existing.CreatedBy
		entry.CreatedAt = existing.CreatedAt
	}

	s.entries[path] = entry
	s.total = newTotal

	s.logger.Debug("scratchpad write",
		zap.String("path", path),
		zap.String("agent", agent),
		zap.Int("size", len(raw)),
		zap.Int("stored_size", len(stored)),
		zap.Bool("compressed", compressed),
		zap.Int64("version", entry.Version))

	return entry, nil
}

// Read returns the content stored at path.
func (s *Scratchpad) Read(path string) (string, *ScratchpadEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[path]
	s.mu.RUnlock()
	if !ok {
		return "", nil, ErrNotFound
	}

	if !entry.compressed {
		return string(entry.content), entry, nil
	}
	raw, err := s.decoder.DecodeAll(entry.content, nil)
	if err != nil {
		return "", nil, fmt.Errorf("scratchpad: decompress %s: %w", path, err)
	}
	return string(raw), entry, nil
}

// List returns summaries of entries whose path starts with prefix,
// sorted by path. An empty prefix lists everything.
func (s *Scratchpad) List(prefix string) []ScratchpadSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScratchpadSummary, 0, len(s.entries))
	for path, e := range s.entries {
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			continue
		}
		out = append(out, ScratchpadSummary{
			Path:      path,
			Title:     e.Title,
			Size:      e.Size,
			Version:   e.Version,
			UpdatedBy: e.UpdatedBy,
			UpdatedAt: e.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// TotalBytes returns the sum of uncompressed entry sizes.
func (s *Scratchpad) TotalBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Len returns the number of entries.
func (s *Scratchpad) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
