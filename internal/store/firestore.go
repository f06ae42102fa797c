package store

import (
	"context"
	"fmt"
	"sync"

	"skillswap-backend/internal/common"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the Store backed by Cloud Firestore, the document database
// the mobile client was originally written against.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore initializes a Firebase app and its Firestore client.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	return &Firestore{client: client}, nil
}

// Get reads the document at path
func (f *Firestore) Get(ctx context.Context, path string) (*Document, error) {
	ref := f.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("document %s: %w", path, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &Document{ID: ref.ID, Path: path, Fields: snap.Data()}, nil
}

// GetMany runs a one-shot query
func (f *Firestore) GetMany(ctx context.Context, q Query) ([]Document, error) {
	fq, err := f.query(q)
	if err != nil {
		return nil, err
	}

	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return toDocuments(q.Collection, snaps), nil
}

// Create adds a document with a Firestore-assigned id
func (f *Firestore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	col := f.client.Collection(collection)
	if col == nil {
		return "", fmt.Errorf("invalid collection path %q", collection)
	}

	ref, _, err := col.Add(ctx, toFirestore(fields))
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return ref.ID, nil
}

// CreateIfAbsent uses Firestore's create precondition, which fails when the
// document exists
func (f *Firestore) CreateIfAbsent(ctx context.Context, path string, fields Fields) error {
	ref := f.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("invalid document path %q", path)
	}

	if _, err := ref.Create(ctx, toFirestore(fields)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("document %s: %w", path, common.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// Set replaces the document, or merges all given fields into it
func (f *Firestore) Set(ctx context.Context, path string, fields Fields, opts SetOptions) error {
	ref := f.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("invalid document path %q", path)
	}

	var err error
	if opts.Merge {
		_, err = ref.Set(ctx, toFirestore(fields), firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, toFirestore(fields))
	}
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Subscribe opens a snapshot listener for q
func (f *Firestore) Subscribe(ctx context.Context, q Query) (Stream, error) {
	fq, err := f.query(q)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	return &firestoreStream{
		collection: q.Collection,
		it:         fq.Snapshots(streamCtx),
		ctx:        streamCtx,
		cancel:     cancel,
	}, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) query(q Query) (firestore.Query, error) {
	col := f.client.Collection(q.Collection)
	if col == nil {
		return firestore.Query{}, fmt.Errorf("invalid collection path %q", q.Collection)
	}

	fq := col.Query
	for _, filter := range q.Filters {
		fq = fq.Where(filter.Field, string(filter.Op), filter.Value)
	}
	if q.OrderBy != nil {
		dir := firestore.Asc
		if q.OrderBy.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

type firestoreStream struct {
	collection string
	it         *firestore.QuerySnapshotIterator
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
}

// Next ignores ctx: the snapshot iterator is bound to the stream's own
// context and is unblocked by Close.
func (s *firestoreStream) Next(ctx context.Context) ([]Document, error) {
	snap, err := s.it.Next()
	if err != nil {
		if s.ctx.Err() != nil {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("failed to receive snapshot: %w", err)
	}

	snaps, err := snap.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return toDocuments(s.collection, snaps), nil
}

func (s *firestoreStream) Close() {
	s.once.Do(func() {
		s.cancel()
		s.it.Stop()
	})
}

func toDocuments(collection string, snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{
			ID:     snap.Ref.ID,
			Path:   Join(collection, snap.Ref.ID),
			Fields: snap.Data(),
		})
	}
	return docs
}

func toFirestore(fields Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
