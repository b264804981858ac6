// Package store is the primary store adapter: transactional CRUD over
// the mappings table with retry/backoff on transient errors.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"urlshort/internal/apperr"
	"urlshort/internal/domain"
)

// RetryConfig tunes the exponential backoff applied to transient store
// errors: base 100ms, multiplier 2, capped at 2s, up to 3 attempts.
type RetryConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries uint64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second, MaxRetries: 2}
}

// transientPgCodes are the SQLSTATE classes treated as retryable:
// connection-reset, admin-shutdown, cannot-connect-now,
// too-many-connections.
var transientPgCodes = map[string]bool{
	"08006": true, // connection_failure
	"08003": true, // connection_does_not_exist
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

func isTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return transientPgCodes[string(pqErr.Code)]
}

// URLStore is the primary-store capability surface used by the
// shortener and redirect services, the cache's L3 tier, and the expiry
// sweeper.
type URLStore struct {
	db    *sql.DB
	retry RetryConfig
}

func NewURLStore(db *sql.DB, retryCfg RetryConfig) *URLStore {
	return &URLStore{db: db, retry: retryCfg}
}

func (s *URLStore) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.retry.MaxRetries,
		retry.WithCappedDuration(s.retry.MaxDelay, retry.NewExponential(s.retry.BaseDelay)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if appErr, ok := err.(*apperr.Error); ok {
			return appErr
		}
		return apperr.StoreUnavailable(err)
	}
	return nil
}

// Create inserts a new mapping row, computing longUrlHash from longUrl.
func (s *URLStore) Create(ctx context.Context, m *domain.URLMapping) error {
	m.LongURLHash = sha256.Sum256([]byte(m.LongURL))
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()
	m.LastAccessedAt = m.CreatedAt

	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO url_mappings
				(id, short_code, long_url, long_url_hash, user_id, is_custom_alias,
				 created_at, last_accessed_at, expires_at, access_count, is_deleted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, false)
		`, m.ID, m.ShortCode, m.LongURL, m.LongURLHash[:], m.UserID, m.IsCustomAlias,
			m.CreatedAt, m.LastAccessedAt, m.ExpiresAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return apperr.DuplicateCode(fmt.Sprintf("short code %q already exists", m.ShortCode))
			}
			return fmt.Errorf("create mapping: %w", err)
		}
		return nil
	})
}

func scanMapping(row interface {
	Scan(dest ...interface{}) error
}) (*domain.URLMapping, error) {
	var m domain.URLMapping
	var hash []byte
	err := row.Scan(&m.ID, &m.ShortCode, &m.LongURL, &hash, &m.UserID, &m.IsCustomAlias,
		&m.CreatedAt, &m.LastAccessedAt, &m.ExpiresAt, &m.DeletedAt, &m.AccessCount, &m.IsDeleted)
	if err != nil {
		return nil, err
	}
	copy(m.LongURLHash[:], hash)
	return &m, nil
}

const selectColumns = `id, short_code, long_url, long_url_hash, user_id, is_custom_alias,
	created_at, last_accessed_at, expires_at, deleted_at, access_count, is_deleted`

// FindByShortCode returns the mapping for shortCode, or nil if absent
// or soft-deleted: soft-deleted rows are never resolved.
func (s *URLStore) FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error) {
	var m *domain.URLMapping
	err := s.withRetry(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+selectColumns+`
			FROM url_mappings
			WHERE short_code = $1 AND is_deleted = false
		`, shortCode)
		mapping, err := scanMapping(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find by short code: %w", err)
		}
		m = mapping
		return nil
	})
	return m, err
}

// Exists reports whether shortCode is taken among non-deleted rows.
func (s *URLStore) Exists(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM url_mappings WHERE short_code = $1 AND is_deleted = false)`,
			shortCode,
		).Scan(&exists)
	})
	return exists, err
}

// FindByHashAndUser implements the reuse_existing duplicate strategy
// lookup: among non-deleted, non-expired rows owned by userID with a
// matching longUrlHash.
func (s *URLStore) FindByHashAndUser(ctx context.Context, longURL string, userID uuid.UUID) (*domain.URLMapping, error) {
	hash := sha256.Sum256([]byte(longURL))
	var m *domain.URLMapping
	err := s.withRetry(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+selectColumns+`
			FROM url_mappings
			WHERE long_url_hash = $1 AND user_id = $2 AND is_deleted = false
			  AND (expires_at IS NULL OR expires_at > (NOW() AT TIME ZONE 'UTC'))
			ORDER BY created_at DESC
			LIMIT 1
		`, hash[:], userID)
		mapping, err := scanMapping(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find by hash and user: %w", err)
		}
		m = mapping
		return nil
	})
	return m, err
}

// TouchAccess increments access_count and refreshes last_accessed_at.
// Called as a fire-and-forget background task after a redirect.
func (s *URLStore) TouchAccess(ctx context.Context, shortCode string) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE url_mappings
			SET access_count = access_count + 1, last_accessed_at = $2
			WHERE short_code = $1 AND is_deleted = false
		`, shortCode, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("touch access: %w", err)
		}
		return nil
	})
}

// SoftDelete marks a mapping deleted. If ownerID is non-nil, the delete
// is scoped to that owner (used by the DELETE endpoint's ownership
// check); a nil ownerID performs an unconditional admin delete.
func (s *URLStore) SoftDelete(ctx context.Context, shortCode string, ownerID *uuid.UUID) (bool, error) {
	var ok bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var res sql.Result
		var err error
		now := time.Now().UTC()
		if ownerID != nil {
			res, err = s.db.ExecContext(ctx, `
				UPDATE url_mappings SET is_deleted = true, deleted_at = $3
				WHERE short_code = $1 AND user_id = $2 AND is_deleted = false
			`, shortCode, *ownerID, now)
		} else {
			res, err = s.db.ExecContext(ctx, `
				UPDATE url_mappings SET is_deleted = true, deleted_at = $2
				WHERE short_code = $1 AND is_deleted = false
			`, shortCode, now)
		}
		if err != nil {
			return fmt.Errorf("soft delete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		ok = n > 0
		return nil
	})
	return ok, err
}

// SweepExpired soft-deletes up to batch expired rows (expires_at <= now,
// is_deleted = false) and returns their short codes.
func (s *URLStore) SweepExpired(ctx context.Context, batch int) ([]string, error) {
	var codes []string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		codes = nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT short_code FROM url_mappings
			WHERE expires_at <= $1 AND is_deleted = false
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, time.Now().UTC(), batch)
		if err != nil {
			return fmt.Errorf("select expired: %w", err)
		}
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				rows.Close()
				return fmt.Errorf("scan expired: %w", err)
			}
			codes = append(codes, code)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired: %w", err)
		}
		rows.Close()

		if len(codes) == 0 {
			return tx.Commit()
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE url_mappings SET is_deleted = true, deleted_at = $1
			WHERE short_code = ANY($2)
		`, time.Now().UTC(), pq.Array(codes)); err != nil {
			return fmt.Errorf("mark expired: %w", err)
		}
		return tx.Commit()
	})
	return codes, err
}
