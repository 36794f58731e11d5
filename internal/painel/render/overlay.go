package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/display"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

// Reason is why a play completed
type Reason string

const (
	ReasonEnded     Reason = "ended"
	ReasonError     Reason = "error"
	ReasonTimeout   Reason = "timeout"
	ReasonCancelled Reason = "cancelled"
)

// Completion is the single outcome of a play
type Completion struct {
	Reason   Reason
	Sequence int64
	// Err is a media fault for error and timeout completions
	Err error
}

// Template slot names
const (
	SlotTitle = "titulo"
	SlotPrice = "preco"
	SlotImage = "imagem"
)

// allowedStyles are the style keys a template may override
var allowedStyles = map[string]bool{
	"color":            true,
	"background":       true,
	"background-color": true,
	"font-family":      true,
	"font-weight":      true,
	"font-style":       true,
	"text-decoration":  true,
	"width":            true,
	"height":           true,
	"z-index":          true,
}

// OverlayOptions configures the playback safety timer
type OverlayOptions struct {
	// DefaultDuration is assumed for items that declare no duration
	DefaultDuration time.Duration
	// Grace is added to the duration before a play times out
	Grace time.Duration
}

// Overlay plays playlist items as full-screen videos with their overlay
type Overlay struct {
	sink    display.Sink
	events  <-chan v1alpha1.MediaEvent
	opts    OverlayOptions
	logger  zerolog.Logger
	seq     atomic.Int64
	visible atomic.Bool
}

// NewOverlay creates an overlay renderer. media may be nil, in which case
// every play ends by timeout.
func NewOverlay(sink display.Sink, media display.MediaSource, opts OverlayOptions, logger zerolog.Logger) *Overlay {
	o := &Overlay{
		sink:   sink,
		opts:   opts,
		logger: logger.With().Str("component", "overlay").Logger(),
	}
	if media != nil {
		o.events = media.MediaEvents()
	}
	return o
}

// Timeout returns how long item may play before it is abandoned
func (o *Overlay) Timeout(item v1alpha1.PlaylistItem) time.Duration {
	d, ok := item.Duration()
	if !ok {
		d = o.opts.DefaultDuration
	}
	return d + o.opts.Grace
}

// Play shows item and blocks until it completes. It returns exactly one
// completion: the first of media end, media error, safety timeout or ctx
// cancellation. Media events for other plays are ignored.
func (o *Overlay) Play(ctx context.Context, item v1alpha1.PlaylistItem) Completion {
	const op = "render.Play"

	seq := o.seq.Add(1)
	log := o.logger.With().Int64("sequence", seq).Str("item", item.Label()).Logger()

	scene, err := o.Scene(item, seq)
	if err != nil {
		log.Warn().Err(err).Msg("item cannot be played")
		return Completion{Reason: ReasonError, Sequence: seq, Err: err}
	}

	frame := v1alpha1.NewFrame(v1alpha1.FrameOverlay)
	frame.Overlay = scene
	if err := o.sink.Show(ctx, frame); err != nil {
		if ctx.Err() != nil {
			return Completion{Reason: ReasonCancelled, Sequence: seq, Err: ctx.Err()}
		}
		log.Warn().Err(err).Msg("overlay frame not delivered")
		return Completion{Reason: ReasonError, Sequence: seq, Err: perrors.MediaFault(op, err.Error())}
	}
	o.visible.Store(true)

	timeout := o.Timeout(item)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Completion{Reason: ReasonCancelled, Sequence: seq, Err: ctx.Err()}

		case <-timer.C:
			log.Warn().Dur("timeout", timeout).Msg("playback timed out")
			return Completion{
				Reason:   ReasonTimeout,
				Sequence: seq,
				Err:      perrors.MediaFault(op, fmt.Sprintf("%s: no completion after %s", scene.Source, timeout)),
			}

		case ev := <-o.events:
			if ev.Sequence != seq {
				log.Debug().Int64("stale", ev.Sequence).Msg("ignoring media event")
				continue
			}
			switch ev.Type {
			case v1alpha1.MediaEnded:
				return Completion{Reason: ReasonEnded, Sequence: seq}
			case v1alpha1.MediaError:
				log.Warn().Str("detail", ev.Detail).Msg("media error")
				return Completion{
					Reason:   ReasonError,
					Sequence: seq,
					Err:      perrors.MediaFault(op, fmt.Sprintf("%s: %s", scene.Source, ev.Detail)),
				}
			}
		}
	}
}

// Hide tears down the overlay. It always emits a hide frame.
func (o *Overlay) Hide(ctx context.Context) error {
	o.visible.Store(false)
	return o.sink.Show(ctx, v1alpha1.NewFrame(v1alpha1.FrameHide))
}

// Visible reports whether an overlay may be on screen
func (o *Overlay) Visible() bool {
	return o.visible.Load()
}

// Scene builds the overlay frame of item. Advertisements have no
// elements; products draw title, price, image and extras over the video.
func (o *Overlay) Scene(item v1alpha1.PlaylistItem, seq int64) (*v1alpha1.OverlayFrame, error) {
	scene := &v1alpha1.OverlayFrame{
		Sequence: seq,
		Source:   item.Source(),
		Muted:    true,
		Autoplay: true,
	}

	switch item.Kind() {
	case v1alpha1.KindAd:
	case v1alpha1.KindProduct:
		if tpl := item.Product.Template; tpl != nil {
			scene.Elements = productElements(item.Product.Product, tpl)
		}
	default:
		return nil, perrors.MediaFault("render.Scene", fmt.Sprintf("unsupported playlist item %q", item.RawKind()))
	}

	if scene.Source == "" {
		return nil, perrors.MediaFault("render.Scene", fmt.Sprintf("%s has no video", item.Label()))
	}
	return scene, nil
}

func productElements(p v1alpha1.Product, tpl *v1alpha1.VideoTemplate) []v1alpha1.OverlayElement {
	var out []v1alpha1.OverlayElement

	add := func(el v1alpha1.OverlayElement, base map[string]string, override v1alpha1.Style) {
		if hidden(override) {
			return
		}
		el.Rotation = rotation(override)
		el.Style = mergeStyle(base, override)
		out = append(out, el)
	}

	add(v1alpha1.OverlayElement{
		Slot: SlotTitle,
		Kind: v1alpha1.ElementText,
		Text: p.DisplayName(),
		Top:  tpl.TitleTop,
		Left: tpl.TitleLeft,
	}, map[string]string{"color": tpl.TitleColor, "font-size": tpl.TitleSize}, tpl.Styles[SlotTitle])

	add(v1alpha1.OverlayElement{
		Slot: SlotPrice,
		Kind: v1alpha1.ElementText,
		Text: layout.FormatPrice(p.Price),
		Top:  tpl.PriceTop,
		Left: tpl.PriceLeft,
	}, map[string]string{"color": tpl.PriceColor, "font-size": tpl.PriceSize}, tpl.Styles[SlotPrice])

	if p.Image != "" {
		base := map[string]string{}
		if tpl.ImageWidth > 0 {
			base["width"] = strconv.FormatFloat(tpl.ImageWidth, 'f', -1, 64) + "%"
		}
		add(v1alpha1.OverlayElement{
			Slot: SlotImage,
			Kind: v1alpha1.ElementImage,
			Src:  p.Image,
			Top:  tpl.ImageTop,
			Left: tpl.ImageLeft,
		}, base, tpl.Styles[SlotImage])
	}

	for i, extra := range tpl.Extras {
		add(v1alpha1.OverlayElement{
			Slot: fmt.Sprintf("extra-%d", i),
			Kind: v1alpha1.ElementText,
			Text: extra.Text,
			Top:  extra.Top,
			Left: extra.Left,
		}, nil, extra.Style)
	}

	return out
}

func hidden(s v1alpha1.Style) bool {
	if strings.EqualFold(strings.TrimSpace(s["display"]), "none") {
		return true
	}
	h, _ := strconv.ParseBool(s["hidden"])
	return h
}

// rotation reads the "rotate" key in degrees, with or without unit
func rotation(s v1alpha1.Style) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(s["rotate"]), "deg")
	deg, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return deg
}

// mergeStyle applies the permitted overrides on top of base. Empty values
// are dropped.
func mergeStyle(base map[string]string, override v1alpha1.Style) map[string]string {
	out := make(map[string]string)
	for k, v := range base {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range override {
		k = strings.ToLower(strings.TrimSpace(k))
		if allowedStyles[k] && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
