package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"reelpost/internal/config"
)

// Store manages catalog persistence.
type Store struct {
	db      *sql.DB
	dialect dialect
	target  string
	now     func() time.Time
}

const (
	sqliteBusyCode            = 5
	sqliteConstraintUniqueErr = 2067
	pgUniqueViolation         = "23505"

	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

type dialect struct {
	name        string
	driver      string
	positional  bool
	rowLock     string
	tableExists string
}

var (
	sqliteDialect = dialect{
		name:        config.StoreSQLite,
		driver:      "sqlite",
		tableExists: "SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	}
	postgresDialect = dialect{
		name:        config.StorePostgres,
		driver:      "pgx",
		positional:  true,
		rowLock:     " FOR UPDATE",
		tableExists: "SELECT COUNT(1) FROM information_schema.tables WHERE table_name='schema_version'",
	}
)

// rebind rewrites ? placeholders into $n for drivers that need positional
// parameters. Queries in this package never carry literal question marks.
func (d dialect) rebind(query string) string {
	if !d.positional || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteConstraintUniqueErr {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(busyRetryAttempts),
		retry.Delay(busyRetryInitialBackoff),
		retry.MaxDelay(busyRetryMaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isSQLiteBusy),
		retry.LastErrorOnly(true),
	)
}

// Open connects to the catalog configured in cfg and creates the schema on
// first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	var (
		d   dialect
		dsn string
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		d, dsn = postgresDialect, cfg.Store.DSN
	case config.StoreSQLite, "":
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return nil, errors.New("sqlite store path is empty")
		}
		d, dsn = sqliteDialect, sqliteDSN(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name, err)
	}
	if d.name == config.StorePostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s db: %w", d.name, err)
	}

	store := &Store{db: db, dialect: d, target: describeTarget(d, cfg), now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// sqliteDSN applies pragmas on every pooled connection and takes the write
// lock at BEGIN, so concurrent upserts queue on busy_timeout instead of
// failing on lock upgrade.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

func describeTarget(d dialect, cfg *config.Config) string {
	if d.name == config.StoreSQLite {
		return cfg.Store.Path
	}
	parsed, err := url.Parse(cfg.Store.DSN)
	if err != nil || parsed.Host == "" {
		return "postgres"
	}
	return "postgres://" + parsed.Host + parsed.Path
}

// Driver reports the backend name ("sqlite" or "postgres").
func (s *Store) Driver() string {
	return s.dialect.name
}

// Target describes the database location without credentials.
func (s *Store) Target() string {
	return s.target
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	query = s.dialect.rebind(query)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// inTx runs fn inside a transaction, retrying the whole unit when SQLite
// reports the database busy.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}
