package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage brcascan configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.brcascan.yaml.",
		Example: `  brcascan config                                     # show all config
  brcascan config set references.brca1 ~/refs/brca1.fa  # set the BRCA1 reference
  brcascan config set registry.enabled false             # never query ClinVar
  brcascan config get analysis.preview_limit             # get a value`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigShow()
		},
	}

	cmd.AddCommand(c.newConfigSetCmd())
	cmd.AddCommand(c.newConfigGetCmd())

	return cmd
}

func (c *cli) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys: references.brca1, references.brca2,
registry.enabled, registry.base_url, registry.timeout, registry.retries,
registry.api_key, analysis.preview_limit, analysis.require_sample,
catalog.path, catalog.header_fallback, annotation.overrides_path,
store.path. Values are checked against the key's type.`,
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigSet(args[0], args[1])
		},
	}
}

func (c *cli) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConfigGet(args[0])
		},
	}
}

func (c *cli) runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(c.stdout, "# No configuration set. Config file: ~/.brcascan.yaml")
		return nil
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(c.stdout, "# Config file: %s\n", used)
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(c.stdout, string(out))
	return nil
}

func (c *cli) runConfigSet(key, value string) error {
	v, err := parseSetting(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, v)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName+".yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(c.stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (c *cli) runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(c.stdout, val)
	return nil
}
