package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelpost/internal/release"
	"reelpost/internal/services"
)

// Movie is the merged record for one movie key.
type Movie struct {
	Key              string           `json:"movie_key"`
	Title            string           `json:"title"`
	Year             uint16           `json:"year,omitempty"`
	GroupID          string           `json:"group_id"`
	Qualities        []release.Record `json:"qualities"`
	PosterRef        string           `json:"poster_ref,omitempty"`
	DownstreamPostID string           `json:"downstream_post_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Posted reports whether a downstream post exists for the movie, making the
// next publish an edit.
func (m *Movie) Posted() bool {
	return m != nil && m.DownstreamPostID != ""
}

// UpsertParams carries one arrival. GroupID and PosterRef are used only when
// the stored record has no value for them yet.
type UpsertParams struct {
	Key       string
	Title     string
	Year      uint16
	GroupID   string
	Quality   release.Record
	PosterRef string
}

func (p UpsertParams) validate() error {
	switch {
	case strings.TrimSpace(p.Key) == "":
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "movie key is required", nil)
	case strings.TrimSpace(p.Title) == "":
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "title is required", nil)
	case strings.TrimSpace(p.GroupID) == "":
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "group id is required", nil)
	case strings.TrimSpace(p.Quality.FileUniqueID) == "":
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "file unique id is required", nil)
	}
	return nil
}

const movieColumns = "movie_key, title, release_year, group_id, poster_ref, downstream_post_id, created_at, updated_at"

// Upsert merges one arrival into the record for p.Key and returns the
// resulting record. The record is created when absent; the quality is
// appended unless its file unique id is already present; the poster reference
// is filled only while empty; updated_at always advances.
func (s *Store) Upsert(ctx context.Context, p UpsertParams) (*Movie, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(p.Quality)
	if err != nil {
		return nil, services.Wrap(services.ErrInvariant, "catalog", "upsert", "encode quality", err)
	}

	var movie *Movie
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(s.now())
		exists, err := s.lockMovie(ctx, tx, p.Key)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := tx.ExecContext(ctx, s.dialect.rebind(
				`INSERT INTO movies (movie_key, title, release_year, group_id, poster_ref, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (movie_key) DO NOTHING`),
				p.Key, p.Title, int(p.Year), p.GroupID, p.PosterRef, now, now,
			); err != nil {
				if isUniqueViolation(err) {
					return services.Wrap(services.ErrInvariant, "catalog", "upsert",
						fmt.Sprintf("group id %s already belongs to another movie", p.GroupID), err)
				}
				return fmt.Errorf("insert movie: %w", err)
			}
			if _, err := s.lockMovie(ctx, tx, p.Key); err != nil {
				return err
			}
		}

		if p.PosterRef != "" {
			if _, err := tx.ExecContext(ctx, s.dialect.rebind(
				"UPDATE movies SET poster_ref = ? WHERE movie_key = ? AND poster_ref = ''"),
				p.PosterRef, p.Key,
			); err != nil {
				return fmt.Errorf("set poster: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO qualities (movie_key, file_unique_id, position, record_json, created_at)
			 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM qualities WHERE movie_key = ?), ?, ?)
			 ON CONFLICT (movie_key, file_unique_id) DO NOTHING`),
			p.Key, p.Quality.FileUniqueID, p.Key, string(payload), now,
		); err != nil {
			return fmt.Errorf("append quality: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.dialect.rebind(
			"UPDATE movies SET updated_at = ? WHERE movie_key = ?"), now, p.Key,
		); err != nil {
			return fmt.Errorf("touch movie: %w", err)
		}

		loaded, err := s.loadMovie(ctx, tx, "movie_key", p.Key)
		if err != nil {
			return err
		}
		if loaded == nil {
			return services.Wrap(services.ErrInvariant, "catalog", "upsert", "record vanished inside transaction", nil)
		}
		movie = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrInvariant) || errors.Is(err, services.ErrValidation) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTransient, "catalog", "upsert", p.Key, err)
	}
	return movie, nil
}

// lockMovie reports whether key exists, taking a row lock where the dialect
// supports one so concurrent upserts for the same key serialize.
func (s *Store) lockMovie(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	var found string
	err := tx.QueryRowContext(ctx, s.dialect.rebind(
		"SELECT movie_key FROM movies WHERE movie_key = ?"+s.dialect.rowLock), key,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock movie: %w", err)
	}
	return true, nil
}

// GetByKey returns the record for key, or nil when none exists.
func (s *Store) GetByKey(ctx context.Context, key string) (*Movie, error) {
	ctx = ensureContext(ctx)
	movie, err := s.loadMovie(ctx, s.db, "movie_key", key)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "get by key", key, err)
	}
	return movie, nil
}

// GetByGroupID resolves a deep-link group id to its record, or nil when
// unknown.
func (s *Store) GetByGroupID(ctx context.Context, groupID string) (*Movie, error) {
	ctx = ensureContext(ctx)
	movie, err := s.loadMovie(ctx, s.db, "group_id", strings.TrimSpace(groupID))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "get by group", groupID, err)
	}
	return movie, nil
}

// SetDownstreamPostID records the post created for key. It is the only
// mutation outside Upsert.
func (s *Store) SetDownstreamPostID(ctx context.Context, key, postID string) error {
	if strings.TrimSpace(postID) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "set post id", "post id is required", nil)
	}
	res, err := s.execWithRetry(ctx,
		"UPDATE movies SET downstream_post_id = ?, updated_at = ? WHERE movie_key = ?",
		postID, formatTime(s.now()), key,
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "set post id", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "set post id", key, nil)
	}
	return nil
}

// List returns the most recently updated records, newest first. A
// non-positive limit returns all records.
func (s *Store) List(ctx context.Context, limit int) ([]*Movie, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + movieColumns + " FROM movies ORDER BY updated_at DESC, movie_key ASC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "list", "query movies", err)
	}
	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			_ = rows.Close()
			return nil, services.Wrap(services.ErrTransient, "catalog", "list", "scan movie", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, services.Wrap(services.ErrTransient, "catalog", "list", "iterate movies", err)
	}
	_ = rows.Close()

	for _, movie := range movies {
		qualities, err := s.loadQualities(ctx, s.db, movie.Key)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "catalog", "list", movie.Key, err)
		}
		movie.Qualities = qualities
	}
	return movies, nil
}

// UnpostedKeys returns keys of records that have no downstream post yet,
// oldest first.
func (s *Store) UnpostedKeys(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT movie_key FROM movies WHERE downstream_post_id = '' ORDER BY created_at ASC, movie_key ASC")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "unposted", "query movies", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, services.Wrap(services.ErrTransient, "catalog", "unposted", "scan key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "unposted", "iterate keys", err)
	}
	return keys, nil
}

// Stats summarizes catalog contents.
type Stats struct {
	Movies    int `json:"movies"`
	Qualities int `json:"qualities"`
	Posted    int `json:"posted"`
}

// Stats counts stored records.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(CASE WHEN downstream_post_id <> '' THEN 1 ELSE 0 END), 0) FROM movies",
	).Scan(&stats.Movies, &stats.Posted); err != nil {
		return Stats{}, services.Wrap(services.ErrTransient, "catalog", "stats", "count movies", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM qualities").Scan(&stats.Qualities); err != nil {
		return Stats{}, services.Wrap(services.ErrTransient, "catalog", "stats", "count qualities", err)
	}
	return stats, nil
}
