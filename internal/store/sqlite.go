package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/shared"
)

const (
	insertMaxRetries = 4
	insertBaseDelay  = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets matching scans run while registrations insert.
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := newWithDB(db, log)
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func newWithDB(db *sql.DB, log *zap.Logger) *SQLiteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteStore{db: db, log: log}
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS influencers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		niche TEXT NOT NULL,
		followers INTEGER NOT NULL CHECK (followers >= 0),
		platform TEXT NOT NULL,
		name_fold TEXT NOT NULL,
		niche_fold TEXT NOT NULL,
		platform_fold TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_influencers_name ON influencers(name_fold);
	CREATE INDEX IF NOT EXISTS idx_influencers_niche ON influencers(niche_fold, platform_fold);

	CREATE TABLE IF NOT EXISTS brands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		niche TEXT NOT NULL,
		budget INTEGER NOT NULL CHECK (budget >= 0),
		niche_fold TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_brands_niche ON brands(niche_fold);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// InsertInfluencer stores a new influencer and returns its ID.
func (s *SQLiteStore) InsertInfluencer(ctx context.Context, name, niche string, followers int64, platform string) (int64, error) {
	if followers < 0 {
		return 0, fmt.Errorf("insert influencer: followers must be non-negative, got %d", followers)
	}
	query := `INSERT INTO influencers (name, niche, followers, platform, name_fold, niche_fold, platform_fold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := s.insertWithRetry(ctx, "influencer", query,
		name, niche, followers, platform, Fold(name), Fold(niche), Fold(platform), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert influencer: %w", err)
	}
	return id, nil
}

// InsertBrand stores a new brand and returns its ID.
func (s *SQLiteStore) InsertBrand(ctx context.Context, name, niche string, budget int64) (int64, error) {
	if budget < 0 {
		return 0, fmt.Errorf("insert brand: budget must be non-negative, got %d", budget)
	}
	query := `INSERT INTO brands (name, niche, budget, niche_fold, created_at) VALUES (?, ?, ?, ?, ?)`
	id, err := s.insertWithRetry(ctx, "brand", query, name, niche, budget, Fold(niche), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert brand: %w", err)
	}
	return id, nil
}

// insertWithRetry runs an INSERT with exponential backoff on SQLITE_BUSY.
func (s *SQLiteStore) insertWithRetry(ctx context.Context, kind, query string, args ...any) (int64, error) {
	var lastErr error
	for i := 0; i < insertMaxRetries; i++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res.LastInsertId()
		}
		lastErr = err

		if !shared.IsSQLiteConflictError(err) || i == insertMaxRetries-1 {
			break
		}

		delay := insertBaseDelay * time.Duration(1<<i) // 50ms, 100ms, 200ms
		s.log.Debug("insert hit SQLITE_BUSY, retrying",
			zap.String("kind", kind),
			zap.Int("attempt", i+1),
			zap.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, lastErr
}

// GetInfluencerByName looks up an influencer by case-insensitive exact name.
func (s *SQLiteStore) GetInfluencerByName(ctx context.Context, name string) (*domain.Influencer, error) {
	query := `
		SELECT id, name, niche, followers, platform, created_at
		FROM influencers WHERE name_fold = ?
		ORDER BY id LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, Fold(strings.TrimSpace(name)))

	var inf domain.Influencer
	var createdAt int64
	err := row.Scan(&inf.ID, &inf.Name, &inf.Niche, &inf.Followers, &inf.Platform, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan influencer row: %w", err)
	}
	inf.CreatedAt = time.Unix(createdAt, 0)
	return &inf, nil
}

// ScanInfluencers returns influencers matching the filter in insertion order.
func (s *SQLiteStore) ScanInfluencers(ctx context.Context, filter InfluencerFilter) ([]domain.Influencer, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Niche != "" {
		conds = append(conds, "niche_fold = ?")
		args = append(args, Fold(filter.Niche))
	}
	if filter.Platform != "" {
		conds = append(conds, "platform_fold = ?")
		args = append(args, Fold(filter.Platform))
	}
	if filter.Followers != nil {
		conds = append(conds, "followers BETWEEN ? AND ?")
		args = append(args, filter.Followers.Min, filter.Followers.Max)
	}

	query := `SELECT id, name, niche, followers, platform, created_at FROM influencers` +
		whereClause(conds) + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query influencers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.log.Warn("failed to close influencer rows", zap.Error(closeErr))
		}
	}()

	var out []domain.Influencer
	for rows.Next() {
		var inf domain.Influencer
		var createdAt int64
		if err := rows.Scan(&inf.ID, &inf.Name, &inf.Niche, &inf.Followers, &inf.Platform, &createdAt); err != nil {
			return nil, fmt.Errorf("scan influencer row: %w", err)
		}
		inf.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, inf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate influencers: %w", err)
	}
	return out, nil
}

// ScanBrands returns brands matching the filter in insertion order.
func (s *SQLiteStore) ScanBrands(ctx context.Context, filter BrandFilter) ([]domain.Brand, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Niche != "" {
		conds = append(conds, "niche_fold = ?")
		args = append(args, Fold(filter.Niche))
	}
	if filter.MinBudget != nil {
		conds = append(conds, "budget >= ?")
		args = append(args, *filter.MinBudget)
	}

	query := `SELECT id, name, niche, budget, created_at FROM brands` +
		whereClause(conds) + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.log.Warn("failed to close brand rows", zap.Error(closeErr))
		}
	}()

	var out []domain.Brand
	for rows.Next() {
		var b domain.Brand
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Niche, &b.Budget, &createdAt); err != nil {
			return nil, fmt.Errorf("scan brand row: %w", err)
		}
		b.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return out, nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
