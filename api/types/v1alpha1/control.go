package v1alpha1

import "time"

// FrameType defines the kinds of frames sent to the kiosk page
type FrameType string

const (
	// FrameSetup asks the page to show the pairing screen
	FrameSetup FrameType = "SETUP"
	// FrameTitle updates the header title
	FrameTitle FrameType = "TITLE"
	// FrameOrientation applies an orientation marker to the page
	FrameOrientation FrameType = "ORIENTATION"
	// FrameFade starts a fade transition of the table area
	FrameFade FrameType = "FADE"
	// FrameTable replaces the table area with a page of products
	FrameTable FrameType = "TABLE"
	// FramePlaceholder replaces the table area with a message
	FramePlaceholder FrameType = "PLACEHOLDER"
	// FrameOverlay starts a full-screen video with its overlay
	FrameOverlay FrameType = "OVERLAY"
	// FrameHide tears down any overlay
	FrameHide FrameType = "HIDE"
)

// FadeDirection is the direction of a fade transition
type FadeDirection string

const (
	FadeOut FadeDirection = "OUT"
	FadeIn  FadeDirection = "IN"
)

// Frame is a single render instruction pushed to the kiosk page
type Frame struct {
	// TypeMeta describes API version details
	TypeMeta `json:",inline"`
	// Type indicates the kind of frame
	Type FrameType `json:"type"`
	// Timestamp indicates when the frame was produced
	Timestamp time.Time `json:"timestamp"`
	// Title is set on TITLE frames
	Title string `json:"title,omitempty"`
	// Orientation is set on ORIENTATION frames
	Orientation Orientation `json:"orientation,omitempty"`
	// Fade is set on FADE frames
	Fade FadeDirection `json:"fade,omitempty"`
	// Message is set on PLACEHOLDER frames
	Message string `json:"message,omitempty"`
	// Setup is set on SETUP frames
	Setup *SetupScreen `json:"setup,omitempty"`
	// Table is set on TABLE frames
	Table *TableFrame `json:"table,omitempty"`
	// Overlay is set on OVERLAY frames
	Overlay *OverlayFrame `json:"overlay,omitempty"`
}

// NewFrame stamps a frame of the given type
func NewFrame(t FrameType) Frame {
	return Frame{
		TypeMeta:  TypeMeta{Kind: "Frame", APIVersion: APIVersion},
		Type:      t,
		Timestamp: time.Now(),
	}
}

// SetupScreen is the pairing screen shown before a device is paired
type SetupScreen struct {
	// Hint is the placeholder of the code input
	Hint string `json:"hint"`
	// Error is the last pairing failure, if any
	Error string `json:"error,omitempty"`
}

// TableFrame is one page of the price table
type TableFrame struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Columns    []TableColumn `json:"columns"`
}

// TableColumn is a fixed-height column of rows
type TableColumn struct {
	Rows []TableRow `json:"rows"`
}

// TableRow is a product row or an empty filler row
type TableRow struct {
	// Empty marks a filler row that keeps the page height stable
	Empty bool `json:"empty,omitempty"`
	// Name is the product name
	Name string `json:"name,omitempty"`
	// Price is the formatted price
	Price string `json:"price,omitempty"`
	// OnOffer highlights the row
	OnOffer bool `json:"onOffer,omitempty"`
	// Marquee asks the page to scroll a long name horizontally
	Marquee bool `json:"marquee,omitempty"`
}

// ElementKind is the kind of an overlay element
type ElementKind string

const (
	ElementText  ElementKind = "TEXT"
	ElementImage ElementKind = "IMAGE"
)

// OverlayFrame starts a video and draws elements over it
type OverlayFrame struct {
	// Sequence identifies this play; media events must echo it
	Sequence int64 `json:"sequence"`
	// Source is the video URL
	Source   string `json:"source"`
	Muted    bool   `json:"muted"`
	Autoplay bool   `json:"autoplay"`
	// Elements are drawn in order over the video
	Elements []OverlayElement `json:"elements,omitempty"`
}

// OverlayElement is a positioned text or image drawn over the video
type OverlayElement struct {
	// Slot names the template slot ("titulo", "preco", "imagem", "extra-0")
	Slot string      `json:"slot"`
	Kind ElementKind `json:"kind"`
	Text string      `json:"text,omitempty"`
	Src  string      `json:"src,omitempty"`
	// Top and Left are percentages of the screen, anchored at the center
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
	// Rotation is in degrees around the element center
	Rotation float64 `json:"rotation,omitempty"`
	// Style holds the permitted style overrides
	Style map[string]string `json:"style,omitempty"`
}

// MediaEventType is a playback outcome reported by the kiosk page
type MediaEventType string

const (
	MediaEnded MediaEventType = "ENDED"
	MediaError MediaEventType = "ERROR"
)

// MediaEvent is sent by the kiosk page when a video ends or fails
type MediaEvent struct {
	Type MediaEventType `json:"type"`
	// Sequence echoes OverlayFrame.Sequence
	Sequence int64 `json:"sequence"`
	// Detail carries the media error message, if any
	Detail string `json:"detail,omitempty"`
}
