package v1alpha1

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// DisplayMode is the operating mode configured for a device
type DisplayMode string

const (
	// ModeTable shows only the price table
	ModeTable DisplayMode = "TABELA"
	// ModeVideo shows only the video playlist
	ModeVideo DisplayMode = "VIDEO"
	// ModeMixed alternates between table pages and the playlist
	ModeMixed DisplayMode = "MISTO"
)

// Valid reports whether m is one of the known modes
func (m DisplayMode) Valid() bool {
	switch m {
	case ModeTable, ModeVideo, ModeMixed:
		return true
	}
	return false
}

// Orientation describes how the screen is mounted
type Orientation string

const (
	// OrientationHorizontal is a landscape screen
	OrientationHorizontal Orientation = "HORIZONTAL"
	// OrientationVerticalRight is a portrait screen rotated clockwise
	OrientationVerticalRight Orientation = "VERTICAL_DIR"
	// OrientationVerticalLeft is a portrait screen rotated counter-clockwise
	OrientationVerticalLeft Orientation = "VERTICAL_ESQ"
)

// Vertical reports whether o is one of the portrait orientations
func (o Orientation) Vertical() bool {
	return o == OrientationVerticalRight || o == OrientationVerticalLeft
}

// Normalize maps unknown or empty orientations to horizontal
func (o Orientation) Normalize() Orientation {
	switch o {
	case OrientationVerticalRight, OrientationVerticalLeft:
		return o
	}
	return OrientationHorizontal
}

// DisplayConfig is the per-device configuration returned with each snapshot
type DisplayConfig struct {
	// Title is shown in the header of the table view
	Title string `json:"titulo_exibicao"`
	// Mode selects table, video or mixed operation
	Mode DisplayMode `json:"modo_exibicao"`
	// Orientation selects the layout for the screen mounting
	Orientation Orientation `json:"orientacao,omitempty"`
	// Name is the device name registered on the backend
	Name string `json:"nome,omitempty"`
	// UUID echoes the device identifier
	UUID string `json:"uuid,omitempty"`
}

// Product is one row of the price table
type Product struct {
	// Code is the ERP product code
	Code string `json:"codigo,omitempty"`
	// Description is the name shown on screen
	Description string `json:"descricao"`
	// LegacyName is the name field used by older backends
	LegacyName string `json:"nome,omitempty"`
	// Price is the unit price in BRL
	Price decimal.Decimal `json:"preco"`
	// OnOffer marks a product as being on sale
	OnOffer bool `json:"em_oferta"`
	// Family is the ERP category name
	Family string `json:"familia_nome,omitempty"`
	// Image is an optional product picture URL
	Image string `json:"imagem,omitempty"`
	// Template is set when the product also has a promotional video
	Template *VideoTemplate `json:"template_video,omitempty"`
}

// DisplayName returns the description, falling back to the legacy name
func (p Product) DisplayName() string {
	if p.Description != "" {
		return p.Description
	}
	return p.LegacyName
}

// VideoTemplate describes a promotional video and the overlay drawn on it.
// Coordinates are percentages of the screen.
type VideoTemplate struct {
	ID        int    `json:"id,omitempty"`
	Name      string `json:"nome,omitempty"`
	VideoFile string `json:"arquivo_video"`

	TitleTop   float64 `json:"titulo_top"`
	TitleLeft  float64 `json:"titulo_left"`
	TitleColor string  `json:"titulo_cor,omitempty"`
	TitleSize  string  `json:"titulo_tamanho,omitempty"`

	PriceTop   float64 `json:"preco_top"`
	PriceLeft  float64 `json:"preco_left"`
	PriceColor string  `json:"preco_cor,omitempty"`
	PriceSize  string  `json:"preco_tamanho,omitempty"`

	ImageTop   float64 `json:"img_top"`
	ImageLeft  float64 `json:"img_left"`
	ImageWidth float64 `json:"img_width"`

	// Styles holds per-slot style overrides keyed by slot name
	// ("titulo", "preco", "imagem")
	Styles map[string]Style `json:"estilos_css,omitempty"`
	// Extras are free-form text elements drawn in order
	Extras []ExtraElement `json:"elementos_extras,omitempty"`
	// Duration is the declared video length in seconds
	Duration *float64 `json:"duracao,omitempty"`
}

// ExtraElement is a free-form text element of a template
type ExtraElement struct {
	Text  string  `json:"texto"`
	Top   float64 `json:"top"`
	Left  float64 `json:"left"`
	Style Style   `json:"style,omitempty"`
}

// Style is a set of CSS-like overrides. Values are kept as strings; numbers
// and booleans in the JSON source are converted on decode. Styles come from
// a free-form editor, so nested values and non-object styles are dropped
// rather than failing the snapshot.
type Style map[string]string

// UnmarshalJSON keeps the scalar values of a JSON object
func (s *Style) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		*s = nil
		return nil
	}
	out := make(Style, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	*s = out
	return nil
}

// ContentSnapshot is the unit of content received on each poll
type ContentSnapshot struct {
	Config   DisplayConfig  `json:"config"`
	Products []Product      `json:"produtos"`
	Playlist []PlaylistItem `json:"playlist_final"`
	// LegacyOffers is sent by older backends and is not displayed
	LegacyOffers json.RawMessage `json:"ofertas_destaque,omitempty"`
}
