package store

import (
	"context"
	"time"
)

// WithTimeout bounds every call on next by d. A zero d returns next unchanged.
func WithTimeout(next RecordStore, d time.Duration) RecordStore {
	if d <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: d}
}

type timeoutStore struct {
	next    RecordStore
	timeout time.Duration
}

func (s *timeoutStore) Get(ctx context.Context, path string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, path)
}

func (s *timeoutStore) Set(ctx context.Context, path string, doc Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Set(ctx, path, doc)
}

func (s *timeoutStore) Update(ctx context.Context, path string, fields Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Update(ctx, path, fields)
}

func (s *timeoutStore) Remove(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Remove(ctx, path)
}

func (s *timeoutStore) List(ctx context.Context, parent string) (map[string]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.List(ctx, parent)
}

func (s *timeoutStore) CompareAndUpdate(ctx context.Context, path string, expect, fields Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.CompareAndUpdate(ctx, path, expect, fields)
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}
