package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adilkhash/url-shortener/internal/database"
	"github.com/adilkhash/url-shortener/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortCodeAlphabet is the character set used for generated short codes.
// Codes double as access tokens for unlisted URLs, so they are drawn from a
// cryptographically secure source (gonanoid uses crypto/rand).
const shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxGenerationAttempts bounds the collision retry loop in GenerateShortCode.
const maxGenerationAttempts = 10

// ErrMaxRetriesExceeded is returned when the maximum number of attempts for
// generating a unique short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

// ErrURLExpired is returned when a short code resolves to a record whose
// expiry timestamp is in the past.
var ErrURLExpired = errors.New("url has expired")

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// Returns the created URL model or an error if the operation fails.
	Create(ctx context.Context, url *models.URL) (*models.URL, error)

	// GetByShortCode retrieves an active URL by its short code.
	// Returns the URL model if found or an error if not found.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// IncrementClickCount atomically bumps the click counter of a URL.
	// Returns the updated URL model or an error if not found.
	IncrementClickCount(ctx context.Context, id int64) (*models.URL, error)

	// Deactivate flips the active flag of a URL to false.
	// Returns the number of rows affected.
	Deactivate(ctx context.Context, id int64) (int64, error)

	// BulkDeactivateExpired deactivates all active URLs expired as of now.
	// Returns the number of rows affected.
	BulkDeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// URLService provides methods to manage URL shortening operations.
// The service uses a URLRepository interface to interact with the underlying database.
type URLService struct {
	repo            URLRepository
	shortCodeLength int
}

// NewURLService creates a new instance of URLService with the provided repository and short code length.
func NewURLService(repo URLRepository, shortCodeLength int) *URLService {
	return &URLService{
		repo:            repo,
		shortCodeLength: shortCodeLength,
	}
}

// GenerateShortCode produces a random alphanumeric short code that is not
// currently in use. Each attempt costs one repository lookup; after
// maxGenerationAttempts collisions it gives up with ErrMaxRetriesExceeded.
func (s *URLService) GenerateShortCode(ctx context.Context) (string, error) {
	const op = "service.URLService.GenerateShortCode"

	for i := 0; i < maxGenerationAttempts; i++ {
		shortCode, err := gonanoid.Generate(shortCodeAlphabet, s.shortCodeLength)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		_, err = s.repo.GetByShortCode(ctx, shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				return shortCode, nil
			}

			return "", fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
	}

	return "", fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// CreateURL allocates a short code for the original URL and persists the
// record. When customCode is non-empty it is used instead of a generated
// one; its syntax is expected to have been validated by the caller already.
// A taken custom code surfaces as database.ErrShortCodeExists, both from the
// pre-insert lookup and from the unique constraint when two writers race.
func (s *URLService) CreateURL(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error) {
	const op = "service.URLService.CreateURL"

	var shortCode string

	if customCode != "" {
		_, err := s.repo.GetByShortCode(ctx, customCode)
		if err == nil {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}
		if !errors.Is(err, database.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: failed to check custom code: %w", op, err)
		}

		shortCode = customCode
	} else {
		var err error

		shortCode, err = s.GenerateShortCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	url, err := s.repo.Create(ctx, &models.URL{
		OriginalURL: originalURL,
		ShortCode:   shortCode,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create url: %w", op, err)
	}

	return url, nil
}

// ResolveShortCode retrieves the original URL associated with the provided
// short code and counts the visit. Expiry is evaluated here, on read; an
// expired record is left untouched and stays active until cleanup runs.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if url.IsExpired(time.Now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLExpired)
	}

	url, err = s.repo.IncrementClickCount(ctx, url.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	return url, nil
}

// GetURLStats retrieves the record for the provided short code without
// mutating it. Expired records are still reported; deactivated ones are not.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// DeactivateURL permanently deactivates the URL with the given id. It
// reports whether a record was actually flipped; false means the record was
// already inactive or doesn't exist, which is not an error.
func (s *URLService) DeactivateURL(ctx context.Context, id int64) (bool, error) {
	const op = "service.URLService.DeactivateURL"

	affected, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return affected > 0, nil
}

// CleanupExpiredURLs deactivates every active record whose expiry has
// passed and returns the number of records affected.
func (s *URLService) CleanupExpiredURLs(ctx context.Context) (int64, error) {
	const op = "service.URLService.CleanupExpiredURLs"

	count, err := s.repo.BulkDeactivateExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: failed to cleanup expired urls: %w", op, err)
	}

	return count, nil
}
