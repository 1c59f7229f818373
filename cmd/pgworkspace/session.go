package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/damiantriebl/pgworkspace/core"
	"github.com/damiantriebl/pgworkspace/internal/appconfig"
	"github.com/damiantriebl/pgworkspace/internal/eventbus"
	"github.com/damiantriebl/pgworkspace/internal/keymap"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

func newSessionCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and mutate the workspace tab session",
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	cmd.AddCommand(newSessionListCmd(&cfgPath))
	cmd.AddCommand(newSessionNewCmd(&cfgPath))
	cmd.AddCommand(newSessionCloseCmd(&cfgPath))
	cmd.AddCommand(newSessionSwitchCmd(&cfgPath))
	cmd.AddCommand(newSessionRenameCmd(&cfgPath))
	cmd.AddCommand(newSessionExportCmd(&cfgPath))
	cmd.AddCommand(newSessionKeysCmd(&cfgPath))
	return cmd
}

func withSession(cmd *cobra.Command, cfgPath string, fn func(store *core.Store) error) error {
	logger := pslog.Ctx(cmd.Context())
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	store, closeFn, err := openSession(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(store)
}

func newSessionListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tabs in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				session := store.Snapshot()
				for _, tab := range session.Tabs {
					marker := " "
					if tab.IsActive {
						marker = "*"
					}
					closable := "closable"
					if !tab.CanClose {
						closable = "permanent"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-28s %-10s %-10s %s\n", marker, tab.ID, tab.Kind, closable, tab.Title)
				}
				return nil
			})
		},
	}
}

func newSessionNewCmd(cfgPath *string) *cobra.Command {
	var title string
	var query string
	cmd := &cobra.Command{
		Use:   "new [query|schema]",
		Short: "Create a tab and make it active",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "query"
			if len(args) == 1 {
				kind = args[0]
			}
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				var id schema.TabID
				switch kind {
				case "query":
					id = store.CreateQueryTab(title, query)
				case "schema":
					id = store.CreateSchemaTab(title)
				default:
					return fmt.Errorf("unsupported tab kind %q", kind)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "tab title")
	cmd.Flags().StringVar(&query, "query", "", "initial query text (query tabs)")
	return cmd
}

func newSessionCloseCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <tab-id>",
		Short: "Close a tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				store.Close(schema.TabID(args[0]))
				fmt.Fprintln(cmd.OutOrStdout(), store.Snapshot().ActiveTabID)
				return nil
			})
		},
	}
}

func newSessionSwitchCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <tab-id>",
		Short: "Make a tab active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				store.SwitchTo(schema.TabID(args[0]))
				fmt.Fprintln(cmd.OutOrStdout(), store.Snapshot().ActiveTabID)
				return nil
			})
		},
	}
}

func newSessionRenameCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <tab-id> <title>",
		Short: "Rename a tab",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				title := args[1]
				store.Update(schema.TabID(args[0]), schema.TabUpdate{Title: &title})
				return nil
			})
		},
	}
}

func newSessionExportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the session as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *cfgPath, func(store *core.Store) error {
				data, err := json.MarshalIndent(store.Snapshot(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

func newSessionKeysCmd(cfgPath *string) *cobra.Command {
	var press string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Show the tab shortcut table, or dispatch one chord",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			bus := eventbus.New(logger)
			events, cancel := bus.Subscribe()
			defer cancel()
			store, closeFn, err := openSession(cfg, logger, bus)
			if err != nil {
				return err
			}
			defer closeFn()
			km, err := defaultKeymap(logger, store)
			if err != nil {
				return err
			}
			if press == "" {
				for _, binding := range km.Bindings() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", binding.Chord, binding.Description)
				}
				return nil
			}
			if !km.Dispatch(press) {
				return fmt.Errorf("no binding for %q", press)
			}
			for {
				select {
				case event := <-events:
					if event.Type == schema.SessionEventLoaded {
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", event.Type, event.Tab.ID)
				default:
					fmt.Fprintln(cmd.OutOrStdout(), store.Snapshot().ActiveTabID)
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&press, "press", "", "dispatch a chord instead of listing")
	return cmd
}

// defaultKeymap binds the stock tab shortcuts. The store has no knowledge
// of the dispatcher; its operations are just convenient actions.
func defaultKeymap(logger pslog.Logger, store *core.Store) (*keymap.Map, error) {
	km := keymap.New(logger)
	bindings := []struct {
		chord       string
		description string
		action      keymap.Action
	}{
		{"ctrl+t", "new query tab", func() { store.CreateQueryTab("", "") }},
		{"ctrl+shift+s", "new schema tab", func() { store.CreateSchemaTab("") }},
		{"ctrl+w", "close active tab", func() { store.Close(store.Active().ID) }},
		{"ctrl+tab", "next tab", func() { switchRelative(store, 1) }},
		{"ctrl+shift+tab", "previous tab", func() { switchRelative(store, -1) }},
	}
	for _, b := range bindings {
		if err := km.Bind(b.chord, b.description, b.action); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func switchRelative(store *core.Store, delta int) {
	session := store.Snapshot()
	if len(session.Tabs) == 0 {
		return
	}
	current := 0
	for i, tab := range session.Tabs {
		if tab.ID == session.ActiveTabID {
			current = i
			break
		}
	}
	next := (current + delta + len(session.Tabs)) % len(session.Tabs)
	store.SwitchTo(session.Tabs[next].ID)
}
