package gateway

import (
	"context"
	"sort"
	"sync"
)

// MemoryGateway keeps documents in process memory. Stored documents are
// held as JSON so callers never share maps with the store.
type MemoryGateway struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemoryGateway creates an empty in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{collections: make(map[string]map[string][]byte)}
}

func (g *MemoryGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	raw, ok := g.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return unmarshalDocument(raw)
}

func (g *MemoryGateway) Set(ctx context.Context, collection, id string, data Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := marshalDocument(data)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(collection, id, raw)
	return nil
}

func (g *MemoryGateway) Update(ctx context.Context, collection, id string, patch Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	raw, ok := g.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	doc, err := unmarshalDocument(raw)
	if err != nil {
		return err
	}
	if err := Merge(doc, patch); err != nil {
		return err
	}
	out, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	g.put(collection, id, out)
	return nil
}

func (g *MemoryGateway) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.collections[collection], id)
	return nil
}

func (g *MemoryGateway) List(ctx context.Context, collection string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	docs := g.collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		doc, err := unmarshalDocument(docs[id])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Data: doc})
	}
	return entries, nil
}

// Close is a no-op
func (g *MemoryGateway) Close() error { return nil }

func (g *MemoryGateway) put(collection, id string, raw []byte) {
	docs, ok := g.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		g.collections[collection] = docs
	}
	docs[id] = raw
}
