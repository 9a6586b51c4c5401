// Package store is the path-keyed document store the repositories are built on.
//
// Paths are slash separated ("wallets/w-1/transactions/t-9"). Each path holds
// one JSON-shaped document; a document does not contain its children, which
// are reached through List. Backends normalize every document through
// encoding/json, so decimals come back as strings and timestamps as RFC 3339.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists at a path.
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed is returned by CompareAndUpdate when the stored
	// document does not match the expectation.
	ErrConditionFailed = errors.New("record condition failed")
)

// Document is a JSON object stored at a path.
type Document map[string]interface{}

// RecordStore is the contract every backend implements.
type RecordStore interface {
	Get(ctx context.Context, path string) (Document, error)
	// Set overwrites the document at path.
	Set(ctx context.Context, path string, doc Document) error
	// Update merges fields into the existing document one level deep.
	// A nil field value removes the key.
	Update(ctx context.Context, path string, fields Document) error
	Remove(ctx context.Context, path string) error
	// List returns the direct children of parent keyed by their last path segment.
	List(ctx context.Context, parent string) (map[string]Document, error)
	// CompareAndUpdate applies fields only if every key in expect equals the
	// stored value. A nil expectation means the key must be absent.
	CompareAndUpdate(ctx context.Context, path string, expect, fields Document) error
	Close() error
}

// Join builds a path from segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Split returns the parent path and last segment of path.
func Split(path string) (parent, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// Encode converts a struct into a normalized Document.
func Encode(v interface{}) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills v from doc.
func Decode(doc Document, v interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func normalize(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	return Encode(doc)
}

func merge(doc, fields Document) Document {
	out := make(Document, len(doc)+len(fields))
	for k, v := range doc {
		out[k] = v
	}
	for k, v := range fields {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// matches compares normalized values so a decimal or time in expect equals
// its stored string form.
func matches(doc, expect Document) (bool, error) {
	want, err := normalize(expect)
	if err != nil {
		return false, err
	}
	for k := range expect {
		got, present := doc[k]
		w, wanted := want[k]
		if !wanted || w == nil {
			if present && got != nil {
				return false, nil
			}
			continue
		}
		if !present || !reflect.DeepEqual(got, w) {
			return false, nil
		}
	}
	return true, nil
}
