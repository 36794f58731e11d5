// Package v1alpha1 contains the wire types exchanged by the painel player:
// the backend pairing and snapshot API, and the frame protocol spoken with
// the kiosk page.
package v1alpha1

import "time"

// TypeMeta describes an individual object's type and API version
type TypeMeta struct {
	// Kind is a string value representing the type of this object
	Kind string `json:"kind,omitempty"`
	// APIVersion defines the versioned schema of this object
	APIVersion string `json:"apiVersion,omitempty"`
}

// APIVersion is the version stamped on every frame the player emits
const APIVersion = "v1alpha1"

// PlayerStatus is the local status report of a running player
type PlayerStatus struct {
	// Paired is true once a device identifier has been stored
	Paired bool `json:"paired"`
	// DeviceID is the paired device identifier
	DeviceID string `json:"deviceId,omitempty"`
	// State is the engine state (TABELA or VIDEO)
	State string `json:"state,omitempty"`
	// TablePage is the next table page the engine will show
	TablePage int `json:"tablePage"`
	// VideoIndex is the playlist position the engine is on
	VideoIndex int `json:"videoIndex"`
	// Mode is the configured display mode of the current snapshot
	Mode DisplayMode `json:"mode,omitempty"`
	// Orientation is the configured orientation of the current snapshot
	Orientation Orientation `json:"orientation,omitempty"`
	// Fingerprint identifies the content currently on screen
	Fingerprint string `json:"fingerprint,omitempty"`
	// AcceptedAt is when the current snapshot was accepted
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	// Products is the number of products in the current snapshot
	Products int `json:"products"`
	// Playlist is the number of playlist items in the current snapshot
	Playlist int `json:"playlist"`
	// LastFetch is when the backend was last polled
	LastFetch *time.Time `json:"lastFetch,omitempty"`
	// LastError is the error of the last poll, if it failed
	LastError string `json:"lastError,omitempty"`
	// Connections is the number of kiosk pages attached
	Connections int `json:"connections"`
}
