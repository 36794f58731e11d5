package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

func content(title string, mode v1alpha1.DisplayMode, prices ...string) *v1alpha1.ContentSnapshot {
	c := &v1alpha1.ContentSnapshot{
		Config: v1alpha1.DisplayConfig{Title: title, Mode: mode},
	}
	for _, p := range prices {
		c.Products = append(c.Products, v1alpha1.Product{Description: "ITEM", Price: decimal.RequireFromString(p)})
	}
	return c
}

func TestFingerprint(t *testing.T) {
	base, err := Fingerprint(content("BOVINOS", v1alpha1.ModeTable, "10.00"))
	require.NoError(t, err)

	t.Run("title is ignored", func(t *testing.T) {
		fp, err := Fingerprint(content("SUINOS", v1alpha1.ModeTable, "10.00"))
		require.NoError(t, err)
		assert.Equal(t, base, fp)
	})

	t.Run("price change", func(t *testing.T) {
		fp, err := Fingerprint(content("BOVINOS", v1alpha1.ModeTable, "10.50"))
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("mode change", func(t *testing.T) {
		fp, err := Fingerprint(content("BOVINOS", v1alpha1.ModeMixed, "10.00"))
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("orientation change", func(t *testing.T) {
		c := content("BOVINOS", v1alpha1.ModeTable, "10.00")
		c.Config.Orientation = v1alpha1.OrientationVerticalLeft
		fp, err := Fingerprint(c)
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("playlist change", func(t *testing.T) {
		c := content("BOVINOS", v1alpha1.ModeTable, "10.00")
		c.Playlist = []v1alpha1.PlaylistItem{v1alpha1.NewAdItem(v1alpha1.AdItem{URL: "/a.mp4"})}
		fp, err := Fingerprint(c)
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})
}

func TestHolderOffer(t *testing.T) {
	h := NewHolder(layout.DefaultSettings())
	assert.Nil(t, h.Current())

	select {
	case <-h.Ready():
		t.Fatal("holder ready before first snapshot")
	default:
	}

	snap, accepted, first, err := h.Offer(content("A", v1alpha1.ModeTable, "1"))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.True(t, first)
	assert.Equal(t, 18, snap.Layout.Capacity)
	assert.Same(t, snap, h.Current())

	select {
	case <-h.Ready():
	default:
		t.Fatal("holder not ready after first snapshot")
	}

	// identical data with a new title is discarded
	again, accepted, first, err := h.Offer(content("B", v1alpha1.ModeTable, "1"))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.False(t, first)
	assert.Same(t, snap, again)
	assert.Equal(t, "A", h.Current().Content.Config.Title)

	changed := content("A", v1alpha1.ModeTable, "2")
	changed.Config.Orientation = v1alpha1.OrientationVerticalRight
	next, accepted, first, err := h.Offer(changed)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.False(t, first)
	assert.Equal(t, 15, next.Layout.Capacity)
	assert.Same(t, next, h.Current())
}
