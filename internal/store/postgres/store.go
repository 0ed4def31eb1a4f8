// Package postgres implements the message store on PostgreSQL. Claiming uses
// FOR UPDATE SKIP LOCKED plus a lease column and every transition is a
// conditional UPDATE on the current state, so concurrent dispatchers and DLR
// callbacks serialize per message without application-level locks.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Store implements ports.MessageStore using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New opens a PostgreSQL connection pool and returns a Store.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const messageColumns = `
	id, destination, body, state,
	COALESCE(provider_id,''), COALESCE(correlation_id,''),
	COALESCE(raw_response,''), COALESCE(last_error,''), retry_count,
	COALESCE(linked_model,''), COALESCE(linked_id,0),
	COALESCE(pinned_provider_id,''),
	created_at, updated_at
`

// CreateMessages inserts a batch of messages inside one transaction.
func (s *Store) CreateMessages(ctx context.Context, msgs []domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `
		INSERT INTO messages (
			id, destination, body, state, retry_count,
			linked_model, linked_id, pinned_provider_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare insert message: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Destination, m.Body, m.State, m.RetryCount,
			m.LinkedModel, m.LinkedID, m.PinnedProviderID,
			m.CreatedAt, m.UpdatedAt,
		); err != nil {
			return fmt.Errorf("exec insert message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// GetMessage retrieves a message by internal ID.
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMessageNotFound
	}
	return m, err
}

// ClaimQueued leases up to limit queued messages, oldest first. SKIP LOCKED
// keeps overlapping scheduler runs off each other's rows; the lease keeps the
// rows invisible between the claim and the final transition.
func (s *Store) ClaimQueued(ctx context.Context, limit int) ([]domain.Message, error) {
	q := `
		UPDATE messages SET lease_until = NOW() + $1::interval
		WHERE id IN (
			SELECT id FROM messages
			WHERE state = $2 AND (lease_until IS NULL OR lease_until < NOW())
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + messageColumns

	rows, err := s.db.QueryContext(ctx, q, leaseInterval(), domain.StateQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("claim queued: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// ClaimOne leases a single queued message by ID.
func (s *Store) ClaimOne(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	q := `
		UPDATE messages SET lease_until = NOW() + $1::interval
		WHERE id = $2 AND state = $3 AND (lease_until IS NULL OR lease_until < NOW())
		RETURNING ` + messageColumns

	m, err := scanMessage(s.db.QueryRowContext(ctx, q, leaseInterval(), id, domain.StateQueued))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAlreadyClaimed
	}
	return m, err
}

// MarkSent transitions queued->sent and records the provider outcome.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, providerID, correlationID, raw string) error {
	const q = `
		UPDATE messages
		SET state = $1, provider_id = $2, correlation_id = $3, raw_response = $4,
		    last_error = '', lease_until = NULL, updated_at = NOW()
		WHERE id = $5 AND state = $6
	`
	return s.exec(ctx, q, domain.StateSent, providerID, correlationID, raw, id, domain.StateQueued)
}

// RecordRetry keeps the message queued, bumps the retry count, and releases
// the lease for the next scheduler pass.
func (s *Store) RecordRetry(ctx context.Context, id uuid.UUID, lastError, raw string) error {
	const q = `
		UPDATE messages
		SET retry_count = retry_count + 1, last_error = $1, raw_response = $2,
		    lease_until = NULL, updated_at = NOW()
		WHERE id = $3 AND state = $4
	`
	return s.exec(ctx, q, lastError, raw, id, domain.StateQueued)
}

// MarkFailed transitions queued->failed terminally.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, lastError, raw string) error {
	const q = `
		UPDATE messages
		SET state = $1, last_error = $2, raw_response = $3,
		    lease_until = NULL, updated_at = NOW()
		WHERE id = $4 AND state = $5
	`
	return s.exec(ctx, q, domain.StateFailed, lastError, raw, id, domain.StateQueued)
}

// FindByCorrelationID returns the message a DLR callback refers to.
func (s *Store) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.Message, error) {
	if correlationID == "" {
		return nil, domain.ErrMessageNotFound
	}
	q := `SELECT ` + messageColumns + ` FROM messages WHERE correlation_id = $1 LIMIT 1`
	m, err := scanMessage(s.db.QueryRowContext(ctx, q, correlationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMessageNotFound
	}
	return m, err
}

// ApplyDeliveryState records the callback payload unconditionally and
// advances sent->next in the same statement; terminal states never move.
func (s *Store) ApplyDeliveryState(ctx context.Context, id uuid.UUID, next domain.State, rawPayload string) error {
	const q = `
		UPDATE messages
		SET raw_response = $1,
		    state = CASE WHEN state = $2 AND $3 <> $2 THEN $3 ELSE state END,
		    updated_at = NOW()
		WHERE id = $4
	`
	return s.exec(ctx, q, rawPayload, domain.StateSent, next, id)
}

func (s *Store) exec(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func leaseInterval() string {
	return fmt.Sprintf("%d seconds", int(ports.ClaimLease.Seconds()))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	var state string
	if err := row.Scan(
		&m.ID, &m.Destination, &m.Body, &state,
		&m.ProviderID, &m.CorrelationID,
		&m.RawResponse, &m.LastError, &m.RetryCount,
		&m.LinkedModel, &m.LinkedID,
		&m.PinnedProviderID,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.State = domain.State(state)
	return &m, nil
}
