package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/damiantriebl/pgworkspace/internal/appconfig"
	"github.com/damiantriebl/pgworkspace/internal/profiles"
	"github.com/damiantriebl/pgworkspace/internal/vault"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

func newVaultCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage stored connection credentials",
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	cmd.AddCommand(newVaultSetCmd(&cfgPath))
	cmd.AddCommand(newVaultRemoveCmd(&cfgPath))
	cmd.AddCommand(newVaultListCmd(&cfgPath))
	cmd.AddCommand(newVaultRotateCmd(&cfgPath))
	return cmd
}

func withVault(cmd *cobra.Command, cfgPath string, fn func(v *vault.Vault, store *profiles.Store) error) error {
	logger := pslog.Ctx(cmd.Context())
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	v, err := openVault(cfg, logger)
	if err != nil {
		return err
	}
	store, err := openProfiles(cfg, logger)
	if err != nil {
		return err
	}
	return fn(v, store)
}

func resolveProfile(store *profiles.Store, name string) (schema.ConnectionProfile, error) {
	return store.GetByName(name)
}

func newVaultSetCmd(cfgPath *string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "set <profile-name>",
		Short: "Store credentials for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, *cfgPath, func(v *vault.Vault, store *profiles.Store) error {
				profile, err := resolveProfile(store, args[0])
				if err != nil {
					return err
				}
				if username == "" {
					username = profile.Config.Username
				}
				if password == "" {
					return fmt.Errorf("--password is required")
				}
				return v.Set(profile.ID, vault.Credentials{Username: username, Password: password})
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login role (defaults to the profile's)")
	cmd.Flags().StringVar(&password, "password", "", "password to store")
	return cmd
}

func newVaultRemoveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <profile-name>",
		Short: "Delete stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, *cfgPath, func(v *vault.Vault, store *profiles.Store) error {
				profile, err := resolveProfile(store, args[0])
				if err != nil {
					return err
				}
				return v.Delete(profile.ID)
			})
		},
	}
}

func newVaultListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles with stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, *cfgPath, func(v *vault.Vault, store *profiles.Store) error {
				ids, err := v.List()
				if err != nil {
					return err
				}
				for _, id := range ids {
					name := "(unknown profile)"
					if profile, err := store.Get(schema.ProfileID(id)); err == nil {
						name = profile.Name
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", id, name)
				}
				return nil
			})
		},
	}
}

func newVaultRotateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <profile-name>",
		Short: "Re-encrypt credentials under a fresh key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, *cfgPath, func(v *vault.Vault, store *profiles.Store) error {
				profile, err := resolveProfile(store, args[0])
				if err != nil {
					return err
				}
				return v.Rotate(profile.ID)
			})
		},
	}
}
