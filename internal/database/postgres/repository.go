package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adilkhash/url-shortener/internal/database"
	"github.com/adilkhash/url-shortener/internal/models"
)

const urlColumns = `id, original_url, short_code, created_at, expires_at, click_count, is_active`

type urlRecord struct {
	ID          int64      `db:"id"`
	OriginalURL string     `db:"original_url"`
	ShortCode   string     `db:"short_code"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   *time.Time `db:"expires_at"`
	ClickCount  int64      `db:"click_count"`
	IsActive    bool       `db:"is_active"`
}

func (r *urlRecord) toURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		ClickCount:  r.ClickCount,
		IsActive:    r.IsActive,
	}
}

// URLRepository provides access to the urls table. Short code uniqueness is
// enforced by a database constraint, so concurrent writers racing on the
// same code are serialized here rather than at the application layer.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new url record and returns it with store-assigned fields
// (id, created_at, click_count, is_active) populated. A unique-constraint
// violation on the short code is reported as database.ErrShortCodeExists.
func (r *URLRepository) Create(ctx context.Context, url *models.URL) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(original_url, short_code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + urlColumns

	err := r.db.GetContext(ctx, rec, query, url.OriginalURL, url.ShortCode, url.ExpiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// GetByShortCode retrieves an active url record by its short code.
// Inactive records are treated as absent.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT ` + urlColumns + `
		FROM urls
		WHERE short_code = $1 AND is_active = TRUE`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// GetByID retrieves a url record by its id regardless of its active flag.
func (r *URLRepository) GetByID(ctx context.Context, id int64) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByID"

	rec := new(urlRecord)
	query := `SELECT ` + urlColumns + `
		FROM urls
		WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.toURL(), nil
}

// IncrementClickCount bumps the click counter in a single UPDATE statement,
// so concurrent redirects on the same code never lose increments.
func (r *URLRepository) IncrementClickCount(ctx context.Context, id int64) (*models.URL, error) {
	const op = "database.postgres.URLRepository.IncrementClickCount"

	rec := new(urlRecord)
	query := `UPDATE urls
		SET click_count = click_count + 1
		WHERE id = $1
		RETURNING ` + urlColumns

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	return rec.toURL(), nil
}

// Deactivate flips the active flag to false and returns the number of rows
// affected. The is_active filter makes repeated calls report zero, keeping
// deactivation idempotent for callers.
func (r *URLRepository) Deactivate(ctx context.Context, id int64) (int64, error) {
	const op = "database.postgres.URLRepository.Deactivate"

	query := `UPDATE urls
		SET is_active = FALSE
		WHERE id = $1 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to deactivate url record: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}

// BulkDeactivateExpired deactivates every active record whose expiry is
// before now and returns the number of rows affected.
func (r *URLRepository) BulkDeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "database.postgres.URLRepository.BulkDeactivateExpired"

	query := `UPDATE urls
		SET is_active = FALSE
		WHERE expires_at < $1 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to deactivate expired url records: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}
