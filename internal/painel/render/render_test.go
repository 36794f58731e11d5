package render

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	displaytest "github.com/wrale/wrale-painel/internal/painel/display/testing"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

func seconds(s float64) *float64 { return &s }

func adItem(url string, dur *float64) v1alpha1.PlaylistItem {
	return v1alpha1.NewAdItem(v1alpha1.AdItem{URL: url, Duration: dur})
}

func TestTableRenderTransition(t *testing.T) {
	sink := displaytest.NewSink()
	table := NewTable(sink, time.Millisecond)

	params := layout.DefaultSettings().For(v1alpha1.OrientationHorizontal)
	products := []v1alpha1.Product{
		{Description: "PICANHA", Price: decimal.RequireFromString("69.9"), OnOffer: true},
		{Description: "ALCATRA", Price: decimal.RequireFromString("42")},
		{Description: "COSTELA", Price: decimal.RequireFromString("29.99")},
	}
	require.NoError(t, table.Render(context.Background(), 0, 1, products, params))

	frames := sink.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, v1alpha1.FadeOut, frames[0].Fade)
	assert.Equal(t, v1alpha1.FrameTable, frames[1].Type)
	assert.Equal(t, v1alpha1.FadeIn, frames[2].Fade)

	// 3 products on a horizontal page: 9+9 slots, 15 of them empty
	tf := frames[1].Table
	require.Len(t, tf.Columns, 2)
	empty := 0
	for _, col := range tf.Columns {
		assert.Len(t, col.Rows, 9)
		for _, row := range col.Rows {
			if row.Empty {
				empty++
			}
		}
	}
	assert.Equal(t, 15, empty)
	assert.True(t, tf.Columns[0].Rows[0].OnOffer)
	assert.Equal(t, "R$ 69,90", tf.Columns[0].Rows[0].Price)
}

func TestTablePlaceholder(t *testing.T) {
	sink := displaytest.NewSink()
	table := NewTable(sink, 0)

	require.NoError(t, table.Placeholder(context.Background(), layout.PlaceholderMessage))

	f, ok := sink.Last(v1alpha1.FramePlaceholder)
	require.True(t, ok)
	assert.Equal(t, "Aguardando cadastro de produtos...", f.Message)
}

func TestTableRenderCancelledDuringFade(t *testing.T) {
	sink := displaytest.NewSink()
	table := NewTable(sink, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := table.Placeholder(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []v1alpha1.FrameType{v1alpha1.FrameFade}, sink.Types())
}

func newOverlay(sink *displaytest.Sink, def, grace time.Duration) *Overlay {
	return NewOverlay(sink, sink, OverlayOptions{DefaultDuration: def, Grace: grace}, zerolog.Nop())
}

// playAsync starts a play and returns the overlay frame it shows
func playAsync(t *testing.T, ctx context.Context, o *Overlay, sink *displaytest.Sink, item v1alpha1.PlaylistItem) (*v1alpha1.OverlayFrame, <-chan Completion) {
	t.Helper()

	done := make(chan Completion, 1)
	go func() { done <- o.Play(ctx, item) }()

	for {
		select {
		case f := <-sink.Shown():
			if f.Type == v1alpha1.FrameOverlay {
				return f.Overlay, done
			}
		case <-time.After(2 * time.Second):
			t.Fatal("overlay frame not shown")
		}
	}
}

func wait(t *testing.T, done <-chan Completion) Completion {
	t.Helper()
	select {
	case c := <-done:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("play did not complete")
	}
	return Completion{}
}

func TestOverlayPlayEnded(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, time.Minute, time.Minute)

	scene, done := playAsync(t, context.Background(), o, sink, adItem("/promo.mp4", nil))
	assert.Equal(t, "/promo.mp4", scene.Source)
	assert.True(t, scene.Muted)
	assert.True(t, scene.Autoplay)
	assert.Empty(t, scene.Elements)
	assert.True(t, o.Visible())

	// an event from an earlier play is ignored
	sink.Emit(v1alpha1.MediaEvent{Type: v1alpha1.MediaError, Sequence: scene.Sequence - 1})
	sink.Emit(v1alpha1.MediaEvent{Type: v1alpha1.MediaEnded, Sequence: scene.Sequence})

	c := wait(t, done)
	assert.Equal(t, ReasonEnded, c.Reason)
	assert.Equal(t, scene.Sequence, c.Sequence)
	assert.NoError(t, c.Err)
}

func TestOverlayPlayErrorCompletesOnce(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, 50*time.Millisecond, 0)

	scene, done := playAsync(t, context.Background(), o, sink, adItem("/broken.mp4", nil))
	sink.Emit(v1alpha1.MediaEvent{Type: v1alpha1.MediaError, Sequence: scene.Sequence, Detail: "MEDIA_ERR_DECODE"})

	c := wait(t, done)
	assert.Equal(t, ReasonError, c.Reason)
	assert.True(t, perrors.IsMediaFault(c.Err))
	assert.Contains(t, c.Err.Error(), "MEDIA_ERR_DECODE")

	// the safety timer would have fired by now; nothing else is delivered
	time.Sleep(100 * time.Millisecond)
	select {
	case extra := <-done:
		t.Fatalf("second completion: %+v", extra)
	default:
	}
}

func TestOverlayPlayTimeout(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, 20*time.Millisecond, 10*time.Millisecond)

	start := time.Now()
	c := o.Play(context.Background(), adItem("/hung.mp4", nil))
	assert.Equal(t, ReasonTimeout, c.Reason)
	assert.True(t, perrors.IsMediaFault(c.Err))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestOverlayPlayCancelled(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, time.Minute, 0)

	ctx, cancel := context.WithCancel(context.Background())
	_, done := playAsync(t, ctx, o, sink, adItem("/a.mp4", nil))
	cancel()

	assert.Equal(t, ReasonCancelled, wait(t, done).Reason)
}

func TestOverlayPlayUnplayable(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, time.Minute, 0)

	var unknown v1alpha1.PlaylistItem
	require.NoError(t, unknown.UnmarshalJSON([]byte(`{"tipo": "clima"}`)))

	for _, item := range []v1alpha1.PlaylistItem{
		unknown,
		adItem("", nil),
		v1alpha1.NewProductItem(v1alpha1.ProductItem{Product: v1alpha1.Product{Description: "SEM VIDEO"}}),
	} {
		c := o.Play(context.Background(), item)
		assert.Equal(t, ReasonError, c.Reason)
		assert.True(t, perrors.IsMediaFault(c.Err))
	}
	assert.Empty(t, sink.Frames())
}

func TestOverlayTimeout(t *testing.T) {
	o := NewOverlay(displaytest.NewSink(), nil, OverlayOptions{DefaultDuration: 15 * time.Second, Grace: 5 * time.Second}, zerolog.Nop())

	assert.Equal(t, 20*time.Second, o.Timeout(adItem("/a.mp4", nil)))
	assert.Equal(t, 35*time.Second, o.Timeout(adItem("/a.mp4", seconds(30))))
}

func TestOverlayHide(t *testing.T) {
	sink := displaytest.NewSink()
	o := newOverlay(sink, time.Minute, 0)

	require.NoError(t, o.Hide(context.Background()))
	require.NoError(t, o.Hide(context.Background()))
	assert.Equal(t, []v1alpha1.FrameType{v1alpha1.FrameHide, v1alpha1.FrameHide}, sink.Types())
	assert.False(t, o.Visible())
}

func TestOverlayProductScene(t *testing.T) {
	o := newOverlay(displaytest.NewSink(), time.Minute, 0)

	item := v1alpha1.NewProductItem(v1alpha1.ProductItem{Product: v1alpha1.Product{
		Description: "PICANHA",
		Price:       decimal.RequireFromString("69.9"),
		Image:       "/media/picanha.png",
		Template: &v1alpha1.VideoTemplate{
			VideoFile:  "/media/tpl.mp4",
			TitleTop:   10,
			TitleLeft:  50,
			TitleColor: "#fff",
			TitleSize:  "6vw",
			PriceTop:   80,
			PriceLeft:  50,
			ImageTop:   45,
			ImageLeft:  70,
			ImageWidth: 25,
			Styles: map[string]v1alpha1.Style{
				"titulo": {"font-family": "Bebas", "position": "fixed", "rotate": "-8deg"},
				"preco":  {"background": "red", "onclick": "x"},
				"imagem": {"display": "none"},
			},
			Extras: []v1alpha1.ExtraElement{
				{Text: "OFERTA", Top: 5, Left: 5, Style: v1alpha1.Style{"rotate": "15", "z-index": "3"}},
				{Text: "oculto", Style: v1alpha1.Style{"hidden": "true"}},
				{Text: "SÓ HOJE", Top: 90, Left: 10},
			},
		},
	}})

	scene, err := o.Scene(item, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), scene.Sequence)
	assert.Equal(t, "/media/tpl.mp4", scene.Source)

	slots := make([]string, len(scene.Elements))
	for i, el := range scene.Elements {
		slots[i] = el.Slot
	}
	// the hidden image and the hidden extra are skipped, order is kept
	assert.Equal(t, []string{"titulo", "preco", "extra-0", "extra-2"}, slots)

	title := scene.Elements[0]
	assert.Equal(t, "PICANHA", title.Text)
	assert.Equal(t, 10.0, title.Top)
	assert.Equal(t, 50.0, title.Left)
	assert.Equal(t, -8.0, title.Rotation)
	assert.Equal(t, map[string]string{"color": "#fff", "font-size": "6vw", "font-family": "Bebas"}, title.Style)

	price := scene.Elements[1]
	assert.Equal(t, "R$ 69,90", price.Text)
	assert.Equal(t, map[string]string{"background": "red"}, price.Style)

	extra := scene.Elements[2]
	assert.Equal(t, "OFERTA", extra.Text)
	assert.Equal(t, 15.0, extra.Rotation)
	assert.Equal(t, map[string]string{"z-index": "3"}, extra.Style)

	assert.Nil(t, scene.Elements[3].Style)
}

func TestOverlayProductImage(t *testing.T) {
	o := newOverlay(displaytest.NewSink(), time.Minute, 0)

	item := v1alpha1.NewProductItem(v1alpha1.ProductItem{Product: v1alpha1.Product{
		Description: "ALCATRA",
		Image:       "/media/alcatra.png",
		Template:    &v1alpha1.VideoTemplate{VideoFile: "/t.mp4", ImageTop: 40, ImageLeft: 60, ImageWidth: 30},
	}})

	scene, err := o.Scene(item, 1)
	require.NoError(t, err)
	require.Len(t, scene.Elements, 3)

	img := scene.Elements[2]
	assert.Equal(t, SlotImage, img.Slot)
	assert.Equal(t, v1alpha1.ElementImage, img.Kind)
	assert.Equal(t, "/media/alcatra.png", img.Src)
	assert.Equal(t, map[string]string{"width": "30%"}, img.Style)
}
