package store

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// NotifyChannel канал LISTEN/NOTIFY, в который триггер пишет имя изменённой коллекции
const NotifyChannel = "document_changes"

// DB подмножество pgxpool.Pool, которое нужно хранилищу (pgxmock тоже подходит)
type DB interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore документы в таблице documents (jsonb)
type PostgresStore struct {
	db  DB
	hub *hub
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, hub: newHub()}
}

type documentRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r documentRow) toDocument() Document {
	return Document{ID: r.ID, Data: r.Data, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	var row documentRow
	if err := pgxscan.Get(ctx, s.db, &row, query, collection, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}

	doc := row.toDocument()
	return &doc, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) ([]Document, error) {
	o := buildOptions(opts)
	contains, err := containment(filters)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
	`
	args := []any{collection, string(contains)}
	if o.orderBy != "" {
		query += ` ORDER BY data->>$3, seq`
		args = append(args, o.orderBy)
	} else {
		query += ` ORDER BY seq`
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.toDocument())
	}
	return docs, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalData(data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()
	`

	if _, err := s.db.Exec(ctx, query, collection, id, string(raw)); err != nil {
		return fmt.Errorf("put document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := marshalData(fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`

	result, err := s.db.Exec(ctx, query, collection, id, string(raw))
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update document %s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// Listen снимки приходят после NOTIFY; без запущенного Listener будет только первый снимок
func (s *PostgresStore) Listen(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) (*Subscription, error) {
	if _, err := containment(filters); err != nil {
		return nil, err
	}
	signals, unsubscribe := s.hub.subscribe(collection)
	return startSubscription(ctx, signals, unsubscribe, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, filters, opts...)
	}), nil
}

// Listener держит одно выделенное соединение с LISTEN и будит подписки хранилища
type Listener struct {
	pool       *pgxpool.Pool
	store      *PostgresStore
	logger     *zap.Logger
	retryBase  time.Duration
	retryLimit time.Duration
}

func NewListener(pool *pgxpool.Pool, store *PostgresStore, logger *zap.Logger) *Listener {
	return &Listener{
		pool:       pool,
		store:      store,
		logger:     logger,
		retryBase:  time.Second,
		retryLimit: 30 * time.Second,
	}
}

// Run блокируется до отмены ctx; при обрыве соединения переподключается с экспоненциальной паузой
func (l *Listener) Run(ctx context.Context) {
	l.logger.Info("Starting document change listener", zap.String("channel", NotifyChannel))

	for {
		conn, err := l.connect(ctx)
		if err != nil {
			l.logger.Info("Document change listener stopped")
			return
		}

		err = l.wait(ctx, conn)
		conn.Release()
		if ctx.Err() != nil {
			l.logger.Info("Document change listener stopped")
			return
		}
		l.logger.Error("Document change listener failed", zap.Error(err))
	}
}

// connect ошибка только при отмене ctx
func (l *Listener) connect(ctx context.Context) (*pgxpool.Conn, error) {
	var conn *pgxpool.Conn
	backoff := retry.WithCappedDuration(l.retryLimit, retry.NewExponential(l.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := l.pool.Acquire(ctx)
		if err != nil {
			l.logger.Warn("Failed to acquire listener connection", zap.Error(err))
			return retry.RetryableError(err)
		}
		if _, err := c.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			c.Release()
			l.logger.Warn("Failed to subscribe to notifications", zap.Error(err))
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	// после переподключения изменения могли быть пропущены
	l.store.hub.publishAll()
	return conn, nil
}

func (l *Listener) wait(ctx context.Context, conn *pgxpool.Conn) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.store.hub.publish(n.Payload)
	}
}
