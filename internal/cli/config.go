// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))
	return configCmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var (
		force    bool
		password string
		insecure bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a configuration file from the current settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{configOptional: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists: use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			settings := opts.settings
			if password != "" {
				settings.Password = password
			}
			if insecure {
				settings.InsecureSkipVerify = true
			}
			if err := writeSettings(path, settings); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&password, "password", "", "AUTHINFO password to store")
	cmd.Flags().BoolVar(&insecure, "insecure-skip-verify", false, "do not verify the server certificate")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := toml.Marshal(opts.settings.Redacted())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
