// Package store defines the remote document store the service syncs against
// and its backends (memory, Postgres, Firestore).
//
// Documents live at slash-separated paths: a collection path has an odd
// number of segments ("chats/abc/messages"), a document path an even number
// ("chats/abc").
package store

import (
	"context"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query to documents whose Field matches Value under Op.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds a membership filter on an array field.
func ArrayContains(field string, value any) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// OrderBy is a sort key.
type OrderBy struct {
	Field string
	Desc  bool
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *OrderBy
	Limit      int
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(f Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), f)
	return q
}

// Desc returns a copy of q sorted descending by field.
func (q Query) Desc(field string) Query {
	q.OrderBy = &OrderBy{Field: field, Desc: true}
	return q
}

// Document is one stored document.
type Document struct {
	ID     string
	Path   string
	Fields Fields
}

// SetOptions controls Set.
type SetOptions struct {
	// Merge updates only the given fields instead of replacing the document.
	Merge bool
}

// Merge is the SetOptions for a partial update.
var Merge = SetOptions{Merge: true}

type serverTimestamp struct{}

// ServerTimestamp is a field value replaced by the store's clock on write.
var ServerTimestamp any = serverTimestamp{}

// Stream is a standing query. Next blocks until the first result set or the
// next change to any matching document, and returns the full current result
// set. Close releases the stream and unblocks a pending Next.
type Stream interface {
	Next(ctx context.Context) ([]Document, error)
	Close()
}

// Store is the remote document store.
type Store interface {
	// Get returns the document at path or common.ErrNotFound.
	Get(ctx context.Context, path string) (*Document, error)
	// GetMany runs a one-shot query.
	GetMany(ctx context.Context, q Query) ([]Document, error)
	// Create adds a document with a store-assigned id and returns the id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// CreateIfAbsent writes the document at path only if none exists there,
	// otherwise it returns common.ErrAlreadyExists.
	CreateIfAbsent(ctx context.Context, path string, fields Fields) error
	// Set replaces the document at path, or merges fields into it.
	Set(ctx context.Context, path string, fields Fields, opts SetOptions) error
	// Subscribe opens a live query.
	Subscribe(ctx context.Context, q Query) (Stream, error)
	// Close releases the backend.
	Close() error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitDoc returns the collection path and id of a document path.
func SplitDoc(path string) (collection, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
