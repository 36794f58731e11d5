package v1alpha1

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlaylistKind tags the variant of a playlist item
type PlaylistKind string

const (
	// KindProduct is a product shown over its template video
	KindProduct PlaylistKind = "produto"
	// KindAd is a plain advertisement video without overlay
	KindAd PlaylistKind = "propaganda"
	// KindUnknown is any tag this client does not understand
	KindUnknown PlaylistKind = "desconhecido"
)

// ProductItem is a product featured in the video playlist
type ProductItem struct {
	Product
	// Duration overrides the template duration, in seconds
	Duration *float64 `json:"duracao,omitempty"`
	// Order is the server-side sort key
	Order int `json:"ordem_visual,omitempty"`
}

// AdItem is an advertisement video
type AdItem struct {
	URL         string   `json:"url"`
	Description string   `json:"descricao,omitempty"`
	Duration    *float64 `json:"duracao,omitempty"`
	Order       int      `json:"ordem_visual,omitempty"`
}

// PlaylistItem is a tagged union over ProductItem and AdItem. Exactly one
// of Product and Ad is set for known kinds.
type PlaylistItem struct {
	Product *ProductItem
	Ad      *AdItem

	unknown PlaylistKind
}

// NewProductItem wraps a product item into a playlist entry
func NewProductItem(p ProductItem) PlaylistItem {
	return PlaylistItem{Product: &p}
}

// NewAdItem wraps an advertisement into a playlist entry
func NewAdItem(a AdItem) PlaylistItem {
	return PlaylistItem{Ad: &a}
}

// Kind returns the variant tag
func (p PlaylistItem) Kind() PlaylistKind {
	switch {
	case p.Ad != nil:
		return KindAd
	case p.Product != nil:
		return KindProduct
	}
	return KindUnknown
}

// RawKind returns the tag as received, including unknown tags
func (p PlaylistItem) RawKind() PlaylistKind {
	if p.unknown != "" {
		return p.unknown
	}
	return p.Kind()
}

// Source returns the video URL to play
func (p PlaylistItem) Source() string {
	switch p.Kind() {
	case KindAd:
		return p.Ad.URL
	case KindProduct:
		if p.Product.Template != nil {
			return p.Product.Template.VideoFile
		}
	}
	return ""
}

// Duration returns the declared play length, if any
func (p PlaylistItem) Duration() (time.Duration, bool) {
	var secs *float64
	switch p.Kind() {
	case KindAd:
		secs = p.Ad.Duration
	case KindProduct:
		secs = p.Product.Duration
		if secs == nil && p.Product.Template != nil {
			secs = p.Product.Template.Duration
		}
	}
	if secs == nil || *secs <= 0 {
		return 0, false
	}
	return time.Duration(*secs * float64(time.Second)), true
}

// Label returns a short human readable name for logs
func (p PlaylistItem) Label() string {
	switch p.Kind() {
	case KindAd:
		if p.Ad.Description != "" {
			return p.Ad.Description
		}
		return p.Ad.URL
	case KindProduct:
		return p.Product.DisplayName()
	}
	return string(p.RawKind())
}

// UnmarshalJSON decodes the variant selected by the "tipo" field. A missing
// tag means a product item. Unknown tags decode without error so the caller
// can drop the item.
func (p *PlaylistItem) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind PlaylistKind `json:"tipo"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	*p = PlaylistItem{}
	switch head.Kind {
	case KindAd:
		var ad AdItem
		if err := json.Unmarshal(data, &ad); err != nil {
			return fmt.Errorf("decoding advertisement item: %w", err)
		}
		p.Ad = &ad
	case KindProduct, "":
		var prod ProductItem
		if err := json.Unmarshal(data, &prod); err != nil {
			return fmt.Errorf("decoding product item: %w", err)
		}
		p.Product = &prod
	default:
		p.unknown = head.Kind
	}
	return nil
}

// MarshalJSON encodes the active variant with its tag
func (p PlaylistItem) MarshalJSON() ([]byte, error) {
	switch p.Kind() {
	case KindAd:
		return json.Marshal(struct {
			Kind PlaylistKind `json:"tipo"`
			*AdItem
		}{KindAd, p.Ad})
	case KindProduct:
		return json.Marshal(struct {
			Kind PlaylistKind `json:"tipo"`
			*ProductItem
		}{KindProduct, p.Product})
	}
	return json.Marshal(struct {
		Kind PlaylistKind `json:"tipo"`
	}{p.RawKind()})
}
