package gamedex

import (
	"context"
	"time"
)

// DownloadLink is a single file-host link attached to a game record.
type DownloadLink struct {
	Provider  string `json:"provider"`
	URL       string `json:"url"`
	Platform  string `json:"platform"`
	Version   string `json:"version"`
	SizeBytes int64  `json:"sizeBytes,omitempty"` // 0 means unresolved
}

// GameRecord is the persisted representation of a scraped game listing.
// Number is assigned by the record store on first insert and is the key
// for updates; a zero Number means the record has not been persisted.
type GameRecord struct {
	Number      int            `json:"number"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Developer   string         `json:"developer"`
	ReleaseDate string         `json:"releaseDate,omitempty"`
	CoverURL    string         `json:"coverUrl,omitempty"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Links       []DownloadLink `json:"links"`
	SourceURL   string         `json:"sourceUrl"`
	ContentHash string         `json:"contentHash"`
	TotalBytes  int64          `json:"totalBytes"`
	TotalGiB    string         `json:"totalGib"`
	ExtractedAt time.Time      `json:"extractedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *GameRecord) Validate() error {
	if r.Name == "" {
		return Errorf(EINVALID, "record name required")
	}
	if r.SourceURL == "" {
		return Errorf(EINVALID, "record source URL required")
	}
	return nil
}

// MergeRecords merges a freshly extracted candidate into an existing record.
// For every field the candidate value wins when non-empty, otherwise the
// existing value is kept. The record number is always taken from the
// existing record and the extraction timestamp is refreshed.
func MergeRecords(existing, candidate *GameRecord) *GameRecord {
	merged := *existing

	if candidate.Name != "" {
		merged.Name = candidate.Name
	}
	if candidate.Version != "" {
		merged.Version = candidate.Version
	}
	if candidate.Developer != "" {
		merged.Developer = candidate.Developer
	}
	if candidate.ReleaseDate != "" {
		merged.ReleaseDate = candidate.ReleaseDate
	}
	if candidate.CoverURL != "" {
		merged.CoverURL = candidate.CoverURL
	}
	if candidate.Description != "" {
		merged.Description = candidate.Description
	}
	if len(candidate.Tags) > 0 {
		merged.Tags = candidate.Tags
	}
	if len(candidate.Links) > 0 {
		merged.Links = candidate.Links
	}
	if candidate.SourceURL != "" {
		merged.SourceURL = candidate.SourceURL
	}
	if candidate.ContentHash != "" {
		merged.ContentHash = candidate.ContentHash
	}
	if candidate.TotalBytes > 0 {
		merged.TotalBytes = candidate.TotalBytes
		merged.TotalGiB = candidate.TotalGiB
	}

	merged.Number = existing.Number
	merged.ExtractedAt = time.Now().UTC()
	return &merged
}

// RecordService represents the persisted tabular store for game records.
type RecordService interface {
	// CreateRecord appends a new record and assigns its record number.
	CreateRecord(ctx context.Context, rec *GameRecord) error

	// UpdateRecord overwrites the record stored under the given number.
	// Returns ENOTFOUND if no such record exists.
	UpdateRecord(ctx context.Context, number int, rec *GameRecord) error

	// FindRecordByNumber retrieves a single record.
	// Returns ENOTFOUND if no such record exists.
	FindRecordByNumber(ctx context.Context, number int) (*GameRecord, error)

	// FindRecords retrieves records matching the filter.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*GameRecord, error)
}

// RecordFilter represents a filter for FindRecords. A zero filter matches
// all records.
type RecordFilter struct {
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
