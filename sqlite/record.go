package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ChallX/gamedex"
)

// Compile-time interface verification.
var _ gamedex.RecordService = (*RecordService)(nil)

// RecordService implements gamedex.RecordService using SQLite. One row per
// game record; tags and download links are stored as JSON columns to keep
// the tabular one-row-per-record shape.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

// CreateRecord appends a new record and assigns its record number.
func (s *RecordService) CreateRecord(ctx context.Context, rec *gamedex.GameRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now().UTC()
	}

	tags, links, err := marshalJSONColumns(rec)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO records (name, version, developer, release_date, cover_url, description,
			tags, links, source_url, content_hash, total_bytes, total_gib, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Name, rec.Version, rec.Developer, rec.ReleaseDate, rec.CoverURL, rec.Description,
		tags, links, rec.SourceURL, rec.ContentHash, rec.TotalBytes, rec.TotalGiB,
		rec.ExtractedAt.Format(time.RFC3339))
	if err != nil {
		return gamedex.Errorf(gamedex.EPERSISTENCE, "insert record: %v", err)
	}

	number, err := result.LastInsertId()
	if err != nil {
		return gamedex.Errorf(gamedex.EPERSISTENCE, "read record number: %v", err)
	}
	rec.Number = int(number)
	return nil
}

// UpdateRecord overwrites the record stored under the given number.
func (s *RecordService) UpdateRecord(ctx context.Context, number int, rec *gamedex.GameRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now().UTC()
	}

	tags, links, err := marshalJSONColumns(rec)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET name = ?, version = ?, developer = ?, release_date = ?, cover_url = ?,
			description = ?, tags = ?, links = ?, source_url = ?, content_hash = ?,
			total_bytes = ?, total_gib = ?, extracted_at = ?
		WHERE number = ?
	`, rec.Name, rec.Version, rec.Developer, rec.ReleaseDate, rec.CoverURL, rec.Description,
		tags, links, rec.SourceURL, rec.ContentHash, rec.TotalBytes, rec.TotalGiB,
		rec.ExtractedAt.Format(time.RFC3339), number)
	if err != nil {
		return gamedex.Errorf(gamedex.EPERSISTENCE, "update record %d: %v", number, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return gamedex.Errorf(gamedex.EPERSISTENCE, "update record %d: %v", number, err)
	}
	if rows == 0 {
		return gamedex.Errorf(gamedex.ENOTFOUND, "record %d not found", number)
	}

	rec.Number = number
	return nil
}

const recordColumns = `number, name, version, developer, release_date, cover_url, description,
	tags, links, source_url, content_hash, total_bytes, total_gib, extracted_at`

// FindRecordByNumber retrieves a single record.
func (s *RecordService) FindRecordByNumber(ctx context.Context, number int) (*gamedex.GameRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE number = ?", number)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, gamedex.Errorf(gamedex.ENOTFOUND, "record %d not found", number)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, ordered by record number.
func (s *RecordService) FindRecords(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + recordColumns + " FROM records WHERE 1=1")

	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY number ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, gamedex.Errorf(gamedex.EPERSISTENCE, "query records: %v", err)
	}
	defer rows.Close()

	var records []*gamedex.GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanRecord scans one row into a GameRecord using the given scan function.
func scanRecord(scan func(dest ...any) error) (*gamedex.GameRecord, error) {
	var rec gamedex.GameRecord
	var tags, links, extractedAt string

	err := scan(&rec.Number, &rec.Name, &rec.Version, &rec.Developer, &rec.ReleaseDate,
		&rec.CoverURL, &rec.Description, &tags, &links, &rec.SourceURL, &rec.ContentHash,
		&rec.TotalBytes, &rec.TotalGiB, &extractedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &rec.Links); err != nil {
		return nil, fmt.Errorf("failed to parse links: %w", err)
	}
	rec.ExtractedAt, err = parseRFC3339(extractedAt, "extracted_at")
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// marshalJSONColumns encodes the tags and links columns.
func marshalJSONColumns(rec *gamedex.GameRecord) (tags, links string, err error) {
	t := rec.Tags
	if t == nil {
		t = []string{}
	}
	l := rec.Links
	if l == nil {
		l = []gamedex.DownloadLink{}
	}

	tb, err := json.Marshal(t)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	lb, err := json.Marshal(l)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode links: %w", err)
	}
	return string(tb), string(lb), nil
}
