package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelpost/internal/release"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadMovie reads one record and its qualities through q, which may be the
// pool or a transaction. column is a fixed identifier, never caller input.
func (s *Store) loadMovie(ctx context.Context, q querier, column, value string) (*Movie, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(
		"SELECT "+movieColumns+" FROM movies WHERE "+column+" = ?"), value)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	qualities, err := s.loadQualities(ctx, q, movie.Key)
	if err != nil {
		return nil, err
	}
	movie.Qualities = qualities
	return movie, nil
}

func (s *Store) loadQualities(ctx context.Context, q querier, key string) ([]release.Record, error) {
	rows, err := q.QueryContext(ctx, s.dialect.rebind(
		"SELECT record_json FROM qualities WHERE movie_key = ? ORDER BY position ASC"), key)
	if err != nil {
		return nil, fmt.Errorf("query qualities: %w", err)
	}
	defer rows.Close()

	qualities := []release.Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quality: %w", err)
		}
		var rec release.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode quality: %w", err)
		}
		qualities = append(qualities, rec)
	}
	return qualities, rows.Err()
}

func scanMovie(scanner interface{ Scan(dest ...any) error }) (*Movie, error) {
	var (
		movie      Movie
		year       int64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&movie.Key,
		&movie.Title,
		&year,
		&movie.GroupID,
		&movie.PosterRef,
		&movie.DownstreamPostID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	if year > 0 && year <= 0xffff {
		movie.Year = uint16(year)
	}
	movie.CreatedAt = parseTime(createdRaw)
	movie.UpdatedAt = parseTime(updatedRaw)
	return &movie, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
