package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func int64Ptr(n int64) *int64 { return &n }

func TestInsertAndGetInfluencerByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertInfluencer(ctx, "Alex", "Fitness", 9000, "Instagram")
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetInfluencerByName(ctx, "  alex ")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, int64(9000), got.Followers)
	assert.Equal(t, "Instagram", got.Platform)

	_, err = s.GetInfluencerByName(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertRejectsNegativeNumbers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertInfluencer(ctx, "Neg", "Tech", -1, "YouTube")
	assert.Error(t, err)

	_, err = s.InsertBrand(ctx, "NegBrand", "Tech", -5)
	assert.Error(t, err)
}

func TestScanInfluencersFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seed := []struct {
		name, niche, platform string
		followers             int64
	}{
		{"Alex", "Fitness", "Instagram", 9000},
		{"Bea", "fitness", "instagram", 12000},
		{"Cy", "Fitness", "Instagram", 12001},
		{"Dee", "Fitness", "YouTube", 10000},
		{"Eve", "Beauty", "Instagram", 10000},
	}
	for _, r := range seed {
		_, err := s.InsertInfluencer(ctx, r.name, r.niche, r.followers, r.platform)
		require.NoError(t, err)
	}

	got, err := s.ScanInfluencers(ctx, InfluencerFilter{
		Niche:     "FITNESS",
		Platform:  "Instagram",
		Followers: &Int64Range{Min: 8000, Max: 12000},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, inf := range got {
		names = append(names, inf.Name)
	}
	assert.Equal(t, []string{"Alex", "Bea"}, names)

	all, err := s.ScanInfluencers(ctx, InfluencerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(seed))
}

func TestScanBrandsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertBrand(ctx, "BrandX", "Fitness", 100)
	require.NoError(t, err)
	_, err = s.InsertBrand(ctx, "BrandY", "fitness", 49)
	require.NoError(t, err)
	_, err = s.InsertBrand(ctx, "BrandZ", "Tech", 1000)
	require.NoError(t, err)

	got, err := s.ScanBrands(ctx, BrandFilter{Niche: "Fitness", MinBudget: int64Ptr(50)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BrandX", got[0].Name)

	got, err = s.ScanBrands(ctx, BrandFilter{Niche: "fitness"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFold(t *testing.T) {
	pairs := [][2]string{
		{"Économie", "éCONOMIE"},
		{"ZOË", "zoë"},
		{"Straße", "STRASSE"},
		{"ſ", "S"},
		{"\u212a", "k"},
		{"Instagram", "INSTAGRAM"},
	}
	for _, p := range pairs {
		assert.Equal(t, strings.EqualFold(p[0], p[1]), Fold(p[0]) == Fold(p[1]), "%q vs %q", p[0], p[1])
	}
	assert.NotEqual(t, Fold("Tech"), Fold("Tech "))
}

func TestNonASCIICaseInsensitiveMatching(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertInfluencer(ctx, "Zoë", "Économie", 9000, "Instagram")
	require.NoError(t, err)
	_, err = s.InsertBrand(ctx, "Café Noir", "Économie", 500)
	require.NoError(t, err)

	got, err := s.GetInfluencerByName(ctx, "ZOË")
	require.NoError(t, err)
	assert.Equal(t, "Zoë", got.Name)

	infs, err := s.ScanInfluencers(ctx, InfluencerFilter{Niche: "économie", Platform: "INSTAGRAM"})
	require.NoError(t, err)
	require.Len(t, infs, 1)
	assert.Equal(t, "Zoë", infs[0].Name)

	brands, err := s.ScanBrands(ctx, BrandFilter{Niche: "ÉCONOMIE"})
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "Café Noir", brands[0].Name)
}

func TestInsertRetriesOnBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newWithDB(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO brands").WillReturnError(errors.New("database is locked"))
	mock.ExpectExec("INSERT INTO brands").WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := s.InsertBrand(context.Background(), "BrandX", "Fitness", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGivesUpAfterMaxRetries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newWithDB(db, zap.NewNop())

	for i := 0; i < insertMaxRetries; i++ {
		mock.ExpectExec("INSERT INTO brands").WillReturnError(errors.New("SQLITE_BUSY"))
	}

	start := time.Now()
	_, err = s.InsertBrand(context.Background(), "BrandX", "Fitness", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQLITE_BUSY")
	// Three backoff sleeps: 50ms, 100ms, 200ms.
	assert.GreaterOrEqual(t, time.Since(start), 350*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDoesNotRetryOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newWithDB(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO influencers").WillReturnError(errors.New("disk I/O error"))

	_, err = s.InsertInfluencer(context.Background(), "Alex", "Fitness", 9000, "Instagram")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert influencer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanBrandsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newWithDB(db, zap.NewNop())

	mock.ExpectQuery("SELECT id, name, niche, budget, created_at FROM brands").
		WillReturnError(errors.New("no such table: brands"))

	_, err = s.ScanBrands(context.Background(), BrandFilter{Niche: "Fitness"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query brands")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanInfluencersScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newWithDB(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "name", "niche", "followers", "platform", "created_at"}).
		AddRow(1, "Alex", "Fitness", "lots", "Instagram", 0)
	mock.ExpectQuery("SELECT id, name, niche, followers, platform, created_at FROM influencers").
		WillReturnRows(rows)

	_, err = s.ScanInfluencers(context.Background(), InfluencerFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan influencer row")
}
