package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/config"
	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect CLI configuration",
		Long:  "Show the effective configuration resolved from flags, environment and the config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display every configuration key and its effective value. Secrets are omitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Settings(viper.GetViper())

			return render(cmd.OutOrStdout(), settings, func(table *tablewriter.Table) error {
				table.Header("Property", "Key", "Value")

				for _, key := range config.Keys {
					err := table.Append(humanizeKey(key), key, settings[key])
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Long:  "Print the effective value of a single configuration key, such as cache.type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsKnownKey(key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), viper.GetString(key))

			return err
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.ConfigFileUsed()
			if path == "" {
				return constants.ErrConfigFileNotFound
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)

			return err
		},
	}
}

// configFile is the on-disk layout written by "config init".
type configFile struct {
	BaseURL        string          `yaml:"base_url"`
	Timeout        string          `yaml:"timeout"`
	RetryMax       int             `yaml:"retry_max"`
	RetryBaseDelay string          `yaml:"retry_base_delay"`
	LogLevel       string          `yaml:"log_level"`
	Cache          configFileCache `yaml:"cache"`
}

type configFileCache struct {
	Type  string `yaml:"type"`
	TTL   string `yaml:"ttl"`
	Redis struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"redis"`
}

func newConfigInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Long:  "Write the effective configuration to $HOME/.jsonph/config.yml or --path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to resolve home directory: %w", err)
				}

				path = filepath.Join(home, ".jsonph", "config.yml")
			}

			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return fmt.Errorf("%w: %s", constants.ErrConfigFileExists, path)
				}

				if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to stat %s: %w", path, err)
				}
			}

			file, err := currentConfigFile()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(file)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
			if err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			err = os.WriteFile(path, data, constants.ConfigFilePerm)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

			return err
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "file to write (default is $HOME/.jsonph/config.yml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func currentConfigFile() (configFile, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return configFile{}, fmt.Errorf("loading config: %w", err)
	}

	file := configFile{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout.String(),
		RetryMax:       cfg.RetryMax,
		RetryBaseDelay: cfg.RetryBaseDelay.String(),
		LogLevel:       cfg.LogLevel,
	}

	file.Cache.Type = string(cfg.Cache.Type)
	file.Cache.TTL = cfg.Cache.TTL.String()
	file.Cache.Redis.Host = cfg.Cache.Redis.Host
	file.Cache.Redis.Port = cfg.Cache.Redis.Port

	return file, nil
}
