package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

const (
	pairPath     = "/api/painel/parear/"
	snapshotPath = "/api/painel/%s/"
)

// Pair exchanges a short pairing code for the device identifier
func (c *Client) Pair(ctx context.Context, code string) (*v1alpha1.PairResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, pairPath, v1alpha1.PairRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var paired v1alpha1.PairResponse
	if err := decodeResponse(resp, &paired); err != nil {
		return nil, err
	}
	if paired.UUID == "" {
		return nil, fmt.Errorf("pairing response has no uuid")
	}
	return &paired, nil
}

// GetSnapshot fetches the current content for a paired device. Playlist
// items of unknown kinds are left in place; callers decide what to do
// with them.
func (c *Client) GetSnapshot(ctx context.Context, deviceID string) (*v1alpha1.ContentSnapshot, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(snapshotPath, url.PathEscape(deviceID)), nil)
	if err != nil {
		return nil, err
	}

	var snap v1alpha1.ContentSnapshot
	if err := decodeResponse(resp, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
