package main

import (
	"fmt"

	"github.com/damiantriebl/pgworkspace/core"
	"github.com/damiantriebl/pgworkspace/internal/appconfig"
	"github.com/damiantriebl/pgworkspace/internal/persist"
	"github.com/damiantriebl/pgworkspace/internal/profiles"
	"github.com/damiantriebl/pgworkspace/internal/vault"
	"pkt.systems/pslog"
)

func openSlot(cfg appconfig.Config, logger pslog.Logger) (persist.Slot, error) {
	switch cfg.Storage.Backend {
	case appconfig.BackendSQLite:
		return persist.NewSQLiteStoreWithLogger(cfg.Storage.SQLitePath, logger)
	case appconfig.BackendFile:
		return persist.NewFileStoreWithLogger(cfg.StateDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

func openSession(cfg appconfig.Config, logger pslog.Logger, sink core.EventSink) (*core.Store, func(), error) {
	slot, err := openSlot(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store := core.NewStore(slot, core.Deps{Sink: sink, Logger: logger})
	return store, func() { _ = slot.Close() }, nil
}

func openProfiles(cfg appconfig.Config, logger pslog.Logger) (*profiles.Store, error) {
	return profiles.NewStoreWithLogger(cfg.Profiles.Path, logger)
}

func openVault(cfg appconfig.Config, logger pslog.Logger) (*vault.Vault, error) {
	return vault.NewWithLogger(cfg.Vault.KeyStorePath, cfg.Vault.CredentialDir, logger)
}
