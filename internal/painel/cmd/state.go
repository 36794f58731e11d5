package cmd

import (
	"fmt"

	"github.com/wrale/wrale-painel/internal/painel/client"
	"github.com/wrale/wrale-painel/internal/painel/store/bolt"
)

func (a *app) openStore() (*bolt.Store, error) {
	store, err := bolt.Open(a.cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("error opening state in %s (is painel run holding it?): %w", a.cfg.StateDir, err)
	}
	return store, nil
}

func (a *app) backend() (*client.Client, error) {
	c, err := client.NewClient(a.cfg.Server, client.WithUserAgent("painel/"+version))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return c, nil
}
