package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/api"
	"github.com/timebot/timebot-cli/internal/conversation"
	"github.com/timebot/timebot-cli/internal/ledger"
	"github.com/timebot/timebot-cli/internal/selection"
)

// app is the per-invocation wiring of config, local state and the backend client
type app struct {
	cfg    *internal.Config
	store  internal.KVStore
	client *api.Client
	ids    *internal.IdentityStore
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := internal.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if storageBackend != "" {
		cfg.Storage.Backend = storageBackend
	}
	if storagePath != "" {
		cfg.Storage.Path = storagePath
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	client, err := api.New(cfg.APIURL,
		api.WithTimeout(cfg.HTTP.Timeout),
		api.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}

	store, err := internal.OpenStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}
	internal.LogWith("backend", cfg.Storage.Backend, "path", cfg.Storage.Path, "api", client.BaseURL()).
		Debug("Opened client state")

	return &app{
		cfg:    cfg,
		store:  store,
		client: client,
		ids:    internal.NewIdentityStore(store, client),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close local state: %v", err)
	}
}

func (a *app) session() *conversation.Session {
	return conversation.New(a.store, a.ids, a.client, conversation.WithModel(a.cfg.Chat.Model))
}

func (a *app) ledgerView() *ledger.View {
	return ledger.NewView(a.client, ledger.WithCache(internal.NewSnapshotCache(a.cfg.Cache.Dir)))
}

func (a *app) formatter() ledger.Formatter {
	return ledger.DefaultFormatter(a.cfg.Location())
}

func (a *app) selectionFlow() *selection.Flow {
	return selection.NewFlow(a.client, selection.WithPaymentDelay(a.cfg.Payment.Delay))
}

// savePendingHandOff stores a hand-off for the next chat invocation
func (a *app) savePendingHandOff(ctx context.Context, h selection.HandOff) error {
	return internal.PutJSON(ctx, a.store, internal.KeyPendingHandoff, h)
}

// takePendingHandOff returns and clears the stored hand-off, if any
func (a *app) takePendingHandOff(ctx context.Context) (selection.HandOff, bool) {
	var h selection.HandOff
	err := internal.GetJSON(ctx, a.store, internal.KeyPendingHandoff, &h)
	if errors.Is(err, internal.ErrNotFound) {
		return selection.HandOff{}, false
	}
	if err := a.store.Delete(ctx, internal.KeyPendingHandoff); err != nil {
		internal.LogWarn("Failed to clear pending hand-off: %v", err)
	}
	if err != nil || h.ProviderID == "" {
		if err != nil {
			internal.LogWarn("Discarding unreadable pending hand-off: %v", err)
		}
		return selection.HandOff{}, false
	}
	return h, true
}
