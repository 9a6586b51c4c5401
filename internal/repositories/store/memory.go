package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps documents in process. It backs tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get", path, err)
	}
	s.mu.RLock()
	doc, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return normalize(doc)
}

func (s *MemoryStore) Set(ctx context.Context, path string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set", path, err)
	}
	norm, err := normalize(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = norm
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields Document) error {
	return s.CompareAndUpdate(ctx, path, nil, fields)
}

func (s *MemoryStore) CompareAndUpdate(ctx context.Context, path string, expect, fields Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("update", path, err)
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return ErrNotFound
	}
	if len(expect) > 0 {
		ok, err := matches(doc, expect)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConditionFailed
		}
	}
	s.docs[path] = merge(doc, patch)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("remove", path, err)
	}
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, parent string) (map[string]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list", parent, err)
	}
	prefix := parent + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Document)
	for path, doc := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id := path[len(prefix):]
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		norm, err := normalize(doc)
		if err != nil {
			return nil, err
		}
		out[id] = norm
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
