package redis

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

func TestCache(t *testing.T) {
	// Uses a local Redis on a scratch database; skipped when unavailable
	cache := NewCache(Options{Addr: "localhost:6379", DB: 1})
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	id := identity.DeviceID("test-device")
	require.NoError(t, cache.DeleteSnapshot(ctx, id))

	_, err := cache.LoadSnapshot(ctx, id)
	assert.True(t, perrors.IsNotFound(err))

	in := &v1alpha1.ContentSnapshot{
		Config:   v1alpha1.DisplayConfig{Title: "BOVINOS", Mode: v1alpha1.ModeMixed},
		Products: []v1alpha1.Product{{Description: "PICANHA", Price: decimal.RequireFromString("69.9")}},
		Playlist: []v1alpha1.PlaylistItem{v1alpha1.NewAdItem(v1alpha1.AdItem{URL: "/promo.mp4"})},
	}
	require.NoError(t, cache.SaveSnapshot(ctx, id, in))

	out, err := cache.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "BOVINOS", out.Config.Title)
	require.Len(t, out.Products, 1)
	assert.True(t, in.Products[0].Price.Equal(out.Products[0].Price))
	require.Len(t, out.Playlist, 1)
	assert.Equal(t, "/promo.mp4", out.Playlist[0].Source())

	require.NoError(t, cache.DeleteSnapshot(ctx, id))
}
