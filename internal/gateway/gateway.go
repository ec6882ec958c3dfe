// Package gateway is the document store the progression engine persists through.
// Documents are JSON objects addressed by a slash-joined collection path and an id.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get and Update when the document does not exist
var ErrNotFound = errors.New("document not found")

// Collections used by the engine
const (
	TrainersCollection     = "trainers"
	AttemptsCollection     = "attempts"
	StatsHistoryCollection = "statsHistory"
)

// Document is a JSON object as stored by every backend
type Document map[string]any

// Entry is one document returned by List
type Entry struct {
	ID   string
	Data Document
}

// Gateway reads and writes documents. Only single-document operations are atomic.
type Gateway interface {
	// Get returns ErrNotFound when the document is absent
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or fully replaces a document
	Set(ctx context.Context, collection, id string, data Document) error
	// Update merges patch into an existing document. Keys may be dotted field
	// paths. Returns ErrNotFound when the document is absent.
	Update(ctx context.Context, collection, id string, patch Document) error
	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in a collection ordered by id
	List(ctx context.Context, collection string) ([]Entry, error)
}

// SubCollection returns the path of a collection nested under a document
func SubCollection(parent, id, name string) string {
	return parent + "/" + id + "/" + name
}

// Encode converts any JSON-serialisable value into a Document
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if doc == nil {
		return nil, errors.New("failed to encode document: not a JSON object")
	}
	return doc, nil
}

// Decode fills v from a Document
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// Merge applies a patch to doc in place. A dotted key such as
// "issueProgress.issue1.lastCompletedQuest" walks nested objects, creating
// them when missing or not an object. A plain key replaces the top-level field.
func Merge(doc, patch Document) error {
	normalized, err := Encode(patch)
	if err != nil {
		return err
	}
	for key, value := range normalized {
		parts := strings.Split(key, ".")
		for _, p := range parts {
			if p == "" {
				return fmt.Errorf("invalid field path %q", key)
			}
		}

		target := map[string]any(doc)
		for _, p := range parts[:len(parts)-1] {
			next, ok := target[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[p] = next
			}
			target = next
		}
		target[parts[len(parts)-1]] = value
	}
	return nil
}

func marshalDocument(data Document) ([]byte, error) {
	if data == nil {
		data = Document{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return raw, nil
}

func unmarshalDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
