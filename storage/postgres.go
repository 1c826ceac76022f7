package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"grorent/models"
)

// PostgresStore is the listing store of record. It survives restarts and
// tracks listings across runs by fingerprint, unlike the per-run snapshots
// in SQLite.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		fingerprint TEXT PRIMARY KEY,
		id UUID NOT NULL,
		agency TEXT NOT NULL,
		title TEXT NOT NULL,
		price INTEGER NOT NULL,
		location TEXT,
		size TEXT,
		rooms INTEGER,
		image_urls TEXT[],
		source_url TEXT,
		description TEXT,
		listed_date TEXT,
		provenance TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL,
		times_seen INTEGER NOT NULL DEFAULT 1,
		delisted_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS listing_events (
		id BIGSERIAL PRIMARY KEY,
		fingerprint TEXT NOT NULL REFERENCES listings(fingerprint),
		event_type TEXT NOT NULL,
		price INTEGER,
		previous_price INTEGER,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS price_points (
		id BIGSERIAL PRIMARY KEY,
		fingerprint TEXT NOT NULL REFERENCES listings(fingerprint),
		price INTEGER NOT NULL,
		observed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS media (
		id BIGSERIAL PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		original_url TEXT NOT NULL UNIQUE,
		s3_key TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status, last_seen_at);
	CREATE INDEX IF NOT EXISTS idx_listings_agency ON listings(agency);
	CREATE INDEX IF NOT EXISTS idx_events_fingerprint ON listing_events(fingerprint, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_price_points_fingerprint ON price_points(fingerprint, observed_at);
	CREATE INDEX IF NOT EXISTS idx_media_pending ON media(status) WHERE status = 'pending';
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// Listings
// =============================================================================

const listingColumns = `fingerprint, id, agency, title, price, location, size, rooms,
	image_urls, source_url, description, listed_date, provenance, status,
	first_seen_at, last_seen_at, times_seen, delisted_at`

func (s *PostgresStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (
			fingerprint, id, agency, title, price, location, size, rooms,
			image_urls, source_url, description, listed_date, provenance,
			status, first_seen_at, last_seen_at, times_seen
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'active', $14, $14, 1
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			location = EXCLUDED.location,
			size = COALESCE(NULLIF(EXCLUDED.size, ''), listings.size),
			rooms = COALESCE(NULLIF(EXCLUDED.rooms, 0), listings.rooms),
			image_urls = EXCLUDED.image_urls,
			source_url = EXCLUDED.source_url,
			description = EXCLUDED.description,
			status = 'active',
			last_seen_at = EXCLUDED.last_seen_at,
			times_seen = listings.times_seen + 1,
			delisted_at = NULL`

	_, err := s.pool.Exec(ctx, query,
		l.Fingerprint, l.ID, l.Agency, l.Title, l.Price, l.Location, l.Size, l.Rooms,
		l.ImageURLs, l.SourceURL, l.Description, l.ListedDate, l.Provenance, l.ScrapedAt,
	)
	return err
}

func (s *PostgresStore) scanRecord(row pgx.Row) (*models.ListingRecord, error) {
	var r models.ListingRecord
	err := row.Scan(
		&r.Fingerprint, &r.ID, &r.Agency, &r.Title, &r.Price, &r.Location, &r.Size, &r.Rooms,
		&r.ImageURLs, &r.SourceURL, &r.Description, &r.ListedDate, &r.Provenance, &r.Status,
		&r.FirstSeenAt, &r.LastSeenAt, &r.TimesSeen, &r.DelistedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetListingByFingerprint(ctx context.Context, fingerprint string) (*models.ListingRecord, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE fingerprint = $1`
	return s.scanRecord(s.pool.QueryRow(ctx, query, fingerprint))
}

func (s *PostgresStore) GetListingByID(ctx context.Context, id string) (*models.ListingRecord, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return s.scanRecord(s.pool.QueryRow(ctx, query, id))
}

// GetStaleActiveListings returns scraped listings not seen since the cutoff.
// Synthetic records are skipped: there is no origin page to check.
func (s *PostgresStore) GetStaleActiveListings(ctx context.Context, cutoff time.Time, limit int) ([]models.ListingRecord, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE status = 'active' AND provenance = 'scraped' AND last_seen_at < $1
		ORDER BY last_seen_at
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ListingRecord
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) MarkDelisted(ctx context.Context, fingerprint string, at time.Time) error {
	query := `UPDATE listings SET status = 'delisted', delisted_at = $2 WHERE fingerprint = $1`
	_, err := s.pool.Exec(ctx, query, fingerprint, at)
	return err
}

func (s *PostgresStore) UpdateListingPrice(ctx context.Context, fingerprint string, price int) error {
	query := `UPDATE listings SET price = $2, last_seen_at = NOW() WHERE fingerprint = $1`
	_, err := s.pool.Exec(ctx, query, fingerprint, price)
	return err
}

// =============================================================================
// Events and price points
// =============================================================================

func (s *PostgresStore) CreateListingEvent(ctx context.Context, e *models.ListingEvent) error {
	query := `
		INSERT INTO listing_events (fingerprint, event_type, price, previous_price, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		e.Fingerprint, e.EventType, e.Price, e.PreviousPrice, e.OccurredAt,
	).Scan(&e.ID)
}

func (s *PostgresStore) CreatePricePoint(ctx context.Context, fingerprint string, price int, observedAt time.Time) error {
	query := `INSERT INTO price_points (fingerprint, price, observed_at) VALUES ($1, $2, $3)`
	_, err := s.pool.Exec(ctx, query, fingerprint, price, observedAt)
	return err
}

// =============================================================================
// Media
// =============================================================================

// EnqueueMedia registers listing images for the mirror worker. Already-known
// URLs are left untouched.
func (s *PostgresStore) EnqueueMedia(ctx context.Context, fingerprint string, urls []string) error {
	query := `
		INSERT INTO media (fingerprint, original_url)
		VALUES ($1, $2)
		ON CONFLICT (original_url) DO NOTHING`

	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, query, fingerprint, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) GetPendingMedia(ctx context.Context, limit int) ([]models.MediaAsset, error) {
	query := `
		SELECT id, fingerprint, original_url, COALESCE(s3_key, ''), status, attempts, created_at
		FROM media
		WHERE status = 'pending' AND attempts < 3
		ORDER BY created_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.MediaAsset
	for rows.Next() {
		var m models.MediaAsset
		if err := rows.Scan(&m.ID, &m.Fingerprint, &m.OriginalURL, &m.S3Key,
			&m.Status, &m.Attempts, &m.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, m)
	}
	return assets, rows.Err()
}

func (s *PostgresStore) MarkMediaMirrored(ctx context.Context, id int64, s3Key string) error {
	query := `UPDATE media SET status = 'mirrored', s3_key = $2, attempts = attempts + 1 WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, s3Key)
	return err
}

func (s *PostgresStore) MarkMediaFailed(ctx context.Context, id int64) error {
	query := `
		UPDATE media
		SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= 3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id)
	return err
}
