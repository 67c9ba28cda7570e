package uploader

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pendingBatchLimit = 50

// Echo is one Geo Echo row pending permanent storage.
type Echo struct {
	EchoID        string
	CreatorUserID string
	Content       string
	Title         string
	ContentType   string
	MediaURL      string
	CreatedAt     time.Time
	IsPermanent   bool
}

// EchoStore is the database surface the batch handler needs.
type EchoStore interface {
	PendingUploads(ctx context.Context, priorityOnly bool) ([]Echo, error)
	MarkFlagged(ctx context.Context, echoID, reason string) error
	MarkUploaded(ctx context.Context, echoID, txID string) error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) PendingUploads(ctx context.Context, priorityOnly bool) ([]Echo, error) {
	query := `
		SELECT echo_id, creator_user_id, COALESCE(content, ''), COALESCE(title, ''),
		       COALESCE(content_type, 'text'), COALESCE(media_url, ''), created_at, is_permanent
		FROM geo_echoes
		WHERE is_permanent = TRUE
		AND arweave_tx_id IS NULL
		AND is_active = TRUE`

	if priorityOnly {
		query += " AND echo_type = 'admin'"
	}
	query += " ORDER BY created_at ASC LIMIT $1"

	rows, err := s.pool.Query(ctx, query, pendingBatchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var echoes []Echo
	for rows.Next() {
		var e Echo
		if err := rows.Scan(&e.EchoID, &e.CreatorUserID, &e.Content, &e.Title,
			&e.ContentType, &e.MediaURL, &e.CreatedAt, &e.IsPermanent); err != nil {
			return nil, err
		}
		echoes = append(echoes, e)
	}
	return echoes, rows.Err()
}

// MarkFlagged records a failed moderation check and pulls the echo out of the
// permanent-storage queue so it is never retried without review.
func (s *PostgresStore) MarkFlagged(ctx context.Context, echoID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE geo_echoes
		SET moderation_status = 'flagged',
		    moderation_reason = $1,
		    is_permanent = FALSE
		WHERE echo_id = $2`,
		reason, echoID)
	return err
}

func (s *PostgresStore) MarkUploaded(ctx context.Context, echoID, txID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE geo_echoes
		SET arweave_tx_id = $1,
		    arweave_uploaded_at = NOW(),
		    moderation_status = 'approved'
		WHERE echo_id = $2`,
		txID, echoID)
	return err
}
