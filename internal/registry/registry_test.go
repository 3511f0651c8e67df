package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/store"
)

func newService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "registry.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo, zap.NewNop()), repo
}

func TestDecodeInfluencer(t *testing.T) {
	in, err := DecodeInfluencer([]byte(`{"name":"Alex","niche":"Fitness","followers":9000,"platform":"Instagram"}`))
	require.NoError(t, err)
	assert.Equal(t, InfluencerInput{Name: "Alex", Niche: "Fitness", Followers: 9000, Platform: "Instagram"}, in)

	bad := []string{
		`{"name":"Alex","niche":"Fitness","platform":"Instagram"}`,
		`{"name":"Alex","niche":"Fitness","followers":-1,"platform":"Instagram"}`,
		`{"name":"Alex","niche":"Fitness","followers":"9000","platform":"Instagram"}`,
		`{"name":"","niche":"Fitness","followers":1,"platform":"Instagram"}`,
		`not json`,
	}
	for _, body := range bad {
		_, err := DecodeInfluencer([]byte(body))
		assert.ErrorIs(t, err, ErrInvalid, body)
	}
}

func TestDecodeBrand(t *testing.T) {
	in, err := DecodeBrand([]byte(`{"name":"BrandX","niche":"Fitness","budget":100}`))
	require.NoError(t, err)
	assert.Equal(t, int64(100), in.Budget)

	_, err = DecodeBrand([]byte(`{"name":"BrandX","niche":"Fitness","budget":12.5}`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRegisterInfluencer(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	id, err := svc.RegisterInfluencer(ctx, InfluencerInput{Name: " Alex ", Niche: "Fitness", Followers: 9000, Platform: "Instagram"})
	require.NoError(t, err)
	assert.Positive(t, id)

	inf, err := repo.GetInfluencerByName(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, "Alex", inf.Name)

	_, err = svc.RegisterInfluencer(ctx, InfluencerInput{Name: "   ", Niche: "Fitness", Followers: 1, Platform: "X"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRegisterBrand(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	_, err := svc.RegisterBrand(ctx, BrandInput{Name: "BrandX", Niche: "Fitness", Budget: 100})
	require.NoError(t, err)

	_, err = svc.RegisterBrand(ctx, BrandInput{Name: "Broke", Niche: "Fitness", Budget: -5})
	assert.ErrorIs(t, err, ErrInvalid)

	brands, err := repo.ScanBrands(ctx, store.BrandFilter{Niche: "fitness"})
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "BrandX", brands[0].Name)
}
