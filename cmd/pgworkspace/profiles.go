package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/damiantriebl/pgworkspace/internal/appconfig"
	"github.com/damiantriebl/pgworkspace/internal/profiles"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

func newProfilesCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage saved connection profiles",
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	cmd.AddCommand(newProfilesListCmd(&cfgPath))
	cmd.AddCommand(newProfilesAddCmd(&cfgPath))
	cmd.AddCommand(newProfilesShowCmd(&cfgPath))
	cmd.AddCommand(newProfilesRemoveCmd(&cfgPath))
	cmd.AddCommand(newProfilesSearchCmd(&cfgPath))
	cmd.AddCommand(newProfilesRecentCmd(&cfgPath))
	cmd.AddCommand(newProfilesURLCmd(&cfgPath))
	return cmd
}

func withProfiles(cmd *cobra.Command, cfgPath string, fn func(cfg appconfig.Config, store *profiles.Store) error) error {
	logger := pslog.Ctx(cmd.Context())
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	store, err := openProfiles(cfg, logger)
	if err != nil {
		return err
	}
	return fn(cfg, store)
}

func printProfileLine(cmd *cobra.Command, profile schema.ConnectionProfile) {
	favorite := " "
	if profile.Metadata.IsFavorite {
		favorite = "*"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %-12s %s@%s:%d/%s\n",
		favorite, profile.Name, profile.Metadata.Environment,
		profile.Config.Username, profile.Config.Host, profile.Config.Port, profile.Config.Database)
}

func newProfilesListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				for _, profile := range store.All() {
					printProfileLine(cmd, profile)
				}
				return nil
			})
		},
	}
}

func newProfilesAddCmd(cfgPath *string) *cobra.Command {
	var host, database, username, description, folder, environment string
	var tags []string
	var port uint16
	var favorite bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				config := schema.DefaultConnectionConfig()
				if host != "" {
					config.Host = host
				}
				if port != 0 {
					config.Port = port
				}
				if database != "" {
					config.Database = database
				}
				if username != "" {
					config.Username = username
				}
				created, err := store.Create(schema.ConnectionProfile{
					Name:        args[0],
					Description: description,
					Tags:        tags,
					Folder:      folder,
					Config:      config,
					Metadata: schema.ProfileMetadata{
						IsFavorite:  favorite,
						Environment: schema.NormalizeEnvironment(environment),
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "server host")
	cmd.Flags().Uint16Var(&port, "port", 0, "server port")
	cmd.Flags().StringVar(&database, "database", "", "database name")
	cmd.Flags().StringVar(&username, "username", "", "login role")
	cmd.Flags().StringVar(&description, "description", "", "profile description")
	cmd.Flags().StringVar(&folder, "folder", "", "organizational folder")
	cmd.Flags().StringVar(&environment, "env", "", "environment label")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "profile tag (repeatable)")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	return cmd
}

func newProfilesShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				profile, err := store.GetByName(args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(profile, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

func newProfilesRemoveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				profile, err := store.GetByName(args[0])
				if err != nil {
					return err
				}
				if _, err := store.Delete(profile.ID); err != nil {
					return err
				}
				return nil
			})
		},
	}
}

func newProfilesSearchCmd(cfgPath *string) *cobra.Command {
	var tags []string
	var environment string
	var favorites bool
	var limit int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search profiles by text, tag, environment, or favorite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				options := profiles.SearchOptions{
					Tags:         tags,
					FavoriteOnly: favorites,
					Limit:        limit,
				}
				if len(args) == 1 {
					options.Query = args[0]
				}
				if strings.TrimSpace(environment) != "" {
					env := schema.NormalizeEnvironment(environment)
					options.Environment = &env
				}
				for _, profile := range store.Search(options) {
					printProfileLine(cmd, profile)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "required tag (repeatable)")
	cmd.Flags().StringVar(&environment, "env", "", "environment filter")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "favorites only")
	cmd.Flags().IntVar(&limit, "limit", 0, "result limit")
	return cmd
}

func newProfilesRecentCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently used profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(_ appconfig.Config, store *profiles.Store) error {
				for _, profile := range store.Recent(limit) {
					printProfileLine(cmd, profile)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "result limit")
	return cmd
}

func newProfilesURLCmd(cfgPath *string) *cobra.Command {
	var withPassword bool
	cmd := &cobra.Command{
		Use:   "url <name>",
		Short: "Print a profile's connection string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, *cfgPath, func(cfg appconfig.Config, store *profiles.Store) error {
				profile, err := store.GetByName(args[0])
				if err != nil {
					return err
				}
				password := "*****"
				if withPassword {
					v, err := openVault(cfg, pslog.Ctx(cmd.Context()))
					if err != nil {
						return err
					}
					creds, err := v.Get(profile.ID)
					if err != nil {
						return err
					}
					password = creds.Password
				}
				if _, err := store.MarkUsed(profile.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), profile.Config.ConnectionString(password))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withPassword, "with-password", false, "resolve the password from the vault")
	return cmd
}
