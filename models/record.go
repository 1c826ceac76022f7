package models

import "time"

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusDelisted ListingStatus = "delisted"
)

// ListingRecord is a listing as persisted in Postgres, tracked across runs
// by fingerprint.
type ListingRecord struct {
	Listing
	Status      ListingStatus `json:"status" db:"status"`
	FirstSeenAt time.Time     `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time     `json:"last_seen_at" db:"last_seen_at"`
	TimesSeen   int           `json:"times_seen" db:"times_seen"`
	DelistedAt  *time.Time    `json:"delisted_at,omitempty" db:"delisted_at"`
}

type EventType string

const (
	EventListed      EventType = "listed"
	EventPriceChange EventType = "price_change"
	EventDelisted    EventType = "delisted"
)

// ListingEvent records a lifecycle change observed for a fingerprint.
type ListingEvent struct {
	ID            int64     `json:"id" db:"id"`
	Fingerprint   string    `json:"fingerprint" db:"fingerprint"`
	EventType     EventType `json:"event_type" db:"event_type"`
	Price         int       `json:"price" db:"price"`
	PreviousPrice int       `json:"previous_price" db:"previous_price"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
}

type MediaStatus string

const (
	MediaStatusPending  MediaStatus = "pending"
	MediaStatusMirrored MediaStatus = "mirrored"
	MediaStatusFailed   MediaStatus = "failed"
)

// MediaAsset is one listing image queued for mirroring to object storage.
type MediaAsset struct {
	ID          int64       `json:"id" db:"id"`
	Fingerprint string      `json:"fingerprint" db:"fingerprint"`
	OriginalURL string      `json:"original_url" db:"original_url"`
	S3Key       string      `json:"s3_key" db:"s3_key"`
	Status      MediaStatus `json:"status" db:"status"`
	Attempts    int         `json:"attempts" db:"attempts"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
