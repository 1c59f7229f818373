package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/damiantriebl/pgworkspace/internal/appconfig"
	"github.com/damiantriebl/pgworkspace/internal/health"
	"github.com/damiantriebl/pgworkspace/internal/notify"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	var checkConnections bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run pgworkspace diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath)

			store, closeFn, err := openSession(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer closeFn()
			session := store.Snapshot()
			logger.Info("doctor session ok", "backend", cfg.Storage.Backend, "tabs", len(session.Tabs), "active", session.ActiveTabID)

			profileStore, err := openProfiles(cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("doctor profiles ok", "count", profileStore.Stats().ProfileCount)

			if _, err := openVault(cfg, logger); err != nil {
				return err
			}
			logger.Info("doctor vault ok", "key_store", cfg.Vault.KeyStorePath)

			if checkConnections {
				center := notify.New(logger)
				center.Register(notify.LogSink{Log: logger})
				checker := health.NewWithHistory(logger, cfg.Health.HistoryLimit)
				for _, profile := range profileStore.All() {
					if !profile.Metadata.MonitoringEnabled {
						continue
					}
					profile := profile
					_ = center.Run(cmd.Context(), "connection check: "+profile.Name, func(ctx context.Context) error {
						result := checker.CheckProfile(ctx, profile)
						if result.Status == health.StatusError {
							return fmt.Errorf("%s unreachable: %s", profile.Config.Addr(), result.Error)
						}
						logger.Info("doctor connection ok", "profile", profile.Name, "status", result.Status, "latency_ms", result.Latency.Milliseconds())
						return nil
					})
				}
			}

			if issues := validateSessionShape(session); len(issues) > 0 {
				for _, issue := range issues {
					logger.Error("doctor session issue", "issue", issue)
				}
				return fmt.Errorf("session state has %d issue(s)", len(issues))
			}

			logger.Info("doctor ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path")
	cmd.Flags().BoolVar(&checkConnections, "check-connections", false, "dial monitored profiles")
	return cmd
}

// validateSessionShape re-checks the session invariants from the outside:
// one active tab, a valid active reference, unique ids, non-empty list.
func validateSessionShape(session schema.SessionSnapshot) []string {
	var issues []string
	if len(session.Tabs) == 0 {
		issues = append(issues, "session has no tabs")
		return issues
	}
	activeCount := 0
	seen := make(map[schema.TabID]bool, len(session.Tabs))
	for _, tab := range session.Tabs {
		if tab.IsActive {
			activeCount++
			if tab.ID != session.ActiveTabID {
				issues = append(issues, fmt.Sprintf("active flag on %s disagrees with activeTabId %s", tab.ID, session.ActiveTabID))
			}
		}
		if seen[tab.ID] {
			issues = append(issues, fmt.Sprintf("duplicate tab id %s", tab.ID))
		}
		seen[tab.ID] = true
	}
	if activeCount != 1 {
		issues = append(issues, fmt.Sprintf("expected exactly one active tab, found %d", activeCount))
	}
	if !seen[session.ActiveTabID] {
		issues = append(issues, fmt.Sprintf("activeTabId %s names no tab", session.ActiveTabID))
	}
	return issues
}
