package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"skillswap-backend/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

const notifyChannel = "documents_changed"

// Postgres stores documents as JSONB rows of a single table. Live queries
// re-run on NOTIFY events emitted by a trigger on that table.
type Postgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgres wraps an open pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate applies the embedded schema migrations.
func (p *Postgres) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.db)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Get retrieves a document by path
func (p *Postgres) Get(ctx context.Context, path string) (*Document, error) {
	collection, id := SplitDoc(path)
	query := `SELECT fields FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := p.db.QueryRow(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", path, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Path: path, Fields: fields}, nil
}

// GetMany runs a one-shot query
func (p *Postgres) GetMany(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Path: Join(q.Collection, id), Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// Create inserts a document with a ULID id
func (p *Postgres) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	id := ulid.Make().String()
	raw, err := encodeFields(fields, p.now())
	if err != nil {
		return "", err
	}

	query := `INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)`
	if _, err := p.db.Exec(ctx, query, collection, id, raw); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

// CreateIfAbsent inserts a document unless the path is taken
func (p *Postgres) CreateIfAbsent(ctx context.Context, path string, fields Fields) error {
	collection, id := SplitDoc(path)
	raw, err := encodeFields(fields, p.now())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`
	result, err := p.db.Exec(ctx, query, collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", path, common.ErrAlreadyExists)
	}
	return nil
}

// Set upserts a document, merging top-level fields when requested
func (p *Postgres) Set(ctx context.Context, path string, fields Fields, opts SetOptions) error {
	collection, id := SplitDoc(path)
	raw, err := encodeFields(fields, p.now())
	if err != nil {
		return err
	}

	update := `EXCLUDED.fields`
	if opts.Merge {
		update = `documents.fields || EXCLUDED.fields`
	}
	query := `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET fields = ` + update + `, updated_at = now()
	`
	if _, err := p.db.Exec(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Subscribe holds a dedicated connection listening for change events
func (p *Postgres) Subscribe(ctx context.Context, q Query) (Stream, error) {
	if _, _, err := buildSelect(q); err != nil {
		return nil, err
	}

	conn, err := p.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	return &postgresStream{
		store:  p,
		conn:   conn,
		query:  q,
		ctx:    streamCtx,
		cancel: cancel,
	}, nil
}

// Close closes the pool
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

type postgresStream struct {
	store  *Postgres
	conn   *pgxpool.Conn
	query  Query
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
	once    sync.Once
}

func (s *postgresStream) Next(ctx context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, context.Canceled
	}

	if s.started {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
	s.started = true

	return s.store.GetMany(ctx, s.query)
}

// wait blocks until a change to the stream's collection is announced.
func (s *postgresStream) wait(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	for {
		n, err := s.conn.Conn().WaitForNotification(waitCtx)
		if err != nil {
			if s.ctx.Err() != nil {
				return context.Canceled
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		if n.Payload == s.query.Collection {
			return nil
		}
	}
}

func (s *postgresStream) Close() {
	s.once.Do(func() {
		s.cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true

		// a LISTENing connection must not go back to the pool
		if err := s.conn.Conn().Close(context.Background()); err != nil {
			log.Debug().Err(err).Msg("Failed to close listen connection")
		}
		s.conn.Release()
	})
}

// buildSelect compiles a Query into SQL. Filters become JSONB containment
// tests; field names are passed as parameters.
func buildSelect(q Query) (string, []any, error) {
	if q.Collection == "" {
		return "", nil, fmt.Errorf("query without collection")
	}

	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT id, fields FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		var probe any
		switch f.Op {
		case OpEqual:
			probe = encodeValue(f.Value)
		case OpArrayContains:
			probe = []any{encodeValue(f.Value)}
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		raw, err := json.Marshal(map[string]any{f.Field: probe})
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		args = append(args, string(raw))
		fmt.Fprintf(&sb, ` AND fields @> $%d::jsonb`, len(args))
	}

	if q.OrderBy != nil {
		args = append(args, q.OrderBy.Field)
		dir := "ASC"
		if q.OrderBy.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY fields ->> $%d::text COLLATE "C" %s, id %s`, len(args), dir, dir)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	return sb.String(), args, nil
}

func encodeFields(fields Fields, now time.Time) ([]byte, error) {
	resolved := fields.resolve(now)
	out := make(map[string]any, len(resolved))
	for k, v := range resolved {
		out[k] = encodeValue(v)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	return raw, nil
}

func encodeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(TimeLayout)
	}
	return v
}

func decodeFields(raw []byte) (Fields, error) {
	fields := Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return fields, nil
}
