package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oncoatlas/brcascan/internal/annotate"
	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/clinvar"
	"github.com/oncoatlas/brcascan/internal/diff"
	"github.com/oncoatlas/brcascan/internal/pipeline"
	"github.com/oncoatlas/brcascan/internal/reference"
)

// Configuration keys.
const (
	keyRefBRCA1        = "references.brca1"
	keyRefBRCA2        = "references.brca2"
	keyRegistryEnabled = "registry.enabled"
	keyRegistryURL     = "registry.base_url"
	keyRegistryTimeout = "registry.timeout"
	keyRegistryRetries = "registry.retries"
	keyRegistryAPIKey  = "registry.api_key"
	keyPreviewLimit    = "analysis.preview_limit"
	keyRequireSample   = "analysis.require_sample"
	keyCatalogPath     = "catalog.path"
	keyHeaderFallback  = "catalog.header_fallback"
	keyOverridesPath   = "annotation.overrides_path"
	keyStorePath       = "store.path"
)

const configName = ".brcascan"

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindDuration
	kindRetries
)

// settableKeys are the keys accepted by config set.
var settableKeys = map[string]valueKind{
	keyRefBRCA1:        kindString,
	keyRefBRCA2:        kindString,
	keyRegistryEnabled: kindBool,
	keyRegistryURL:     kindString,
	keyRegistryTimeout: kindDuration,
	keyRegistryRetries: kindRetries,
	keyRegistryAPIKey:  kindString,
	keyPreviewLimit:    kindInt,
	keyRequireSample:   kindBool,
	keyCatalogPath:     kindString,
	keyHeaderFallback:  kindBool,
	keyOverridesPath:   kindString,
	keyStorePath:       kindString,
}

// parseSetting converts a command-line value to the type stored for key.
func parseSetting(key, value string) (any, error) {
	kind, ok := settableKeys[key]
	if !ok {
		return nil, usageErrorf("unknown configuration key %q", key)
	}

	switch kind {
	case kindBool:
		switch strings.ToLower(value) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return nil, usageErrorf("%s: %q is not a boolean", key, value)
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, usageErrorf("%s: %q is not an integer", key, value)
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, usageErrorf("%s: %q is not a positive duration (e.g. 15s)", key, value)
		}
		return d.String(), nil
	case kindRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 1 {
			return nil, usageErrorf("%s: %q must be 0 or 1", key, value)
		}
		return n, nil
	}
	return value, nil
}

func setDefaults() {
	viper.SetDefault(keyRegistryEnabled, true)
	viper.SetDefault(keyRegistryURL, clinvar.DefaultBaseURL)
	viper.SetDefault(keyRegistryTimeout, clinvar.DefaultTimeout)
	viper.SetDefault(keyRegistryRetries, 1)
	viper.SetDefault(keyPreviewLimit, diff.DefaultPreviewLimit)
	viper.SetDefault(keyRequireSample, true)
	viper.SetDefault(keyHeaderFallback, false)
}

// initConfig reads the config file and BRCASCAN_* environment variables.
// A missing config file is not an error.
func initConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BRCASCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// settings is the resolved configuration of one invocation.
type settings struct {
	References      map[string]string
	RegistryEnabled bool
	RegistryURL     string
	RegistryTimeout time.Duration
	RegistryRetries int
	RegistryAPIKey  string
	PreviewLimit    int
	RequireSample   bool
	CatalogPath     string
	HeaderFallback  bool
	OverridesPath   string
	StorePath       string
}

func loadSettings() settings {
	return settings{
		References: map[string]string{
			reference.GeneBRCA1: viper.GetString(keyRefBRCA1),
			reference.GeneBRCA2: viper.GetString(keyRefBRCA2),
		},
		RegistryEnabled: viper.GetBool(keyRegistryEnabled),
		RegistryURL:     viper.GetString(keyRegistryURL),
		RegistryTimeout: viper.GetDuration(keyRegistryTimeout),
		RegistryRetries: viper.GetInt(keyRegistryRetries),
		RegistryAPIKey:  viper.GetString(keyRegistryAPIKey),
		PreviewLimit:    viper.GetInt(keyPreviewLimit),
		RequireSample:   viper.GetBool(keyRequireSample),
		CatalogPath:     viper.GetString(keyCatalogPath),
		HeaderFallback:  viper.GetBool(keyHeaderFallback),
		OverridesPath:   viper.GetString(keyOverridesPath),
		StorePath:       viper.GetString(keyStorePath),
	}
}

func (s settings) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		PreviewLimit:   s.PreviewLimit,
		RequireSample:  s.RequireSample,
		HeaderFallback: s.HeaderFallback,
	}
}

// buildCatalog returns the configured catalog file, or the built-in one.
func (c *cli) buildCatalog(s settings) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if s.CatalogPath != "" {
		var err error
		cat, err = catalog.Load(s.CatalogPath)
		if err != nil {
			return nil, err
		}
	}
	cat.SetLogger(c.logger)
	return cat, nil
}

// buildResolver wires the ClinVar client, unless offline or disabled, and
// the override table extended by the configured overrides file.
func (c *cli) buildResolver(s settings, offline bool) (*annotate.Resolver, error) {
	overrides := annotate.DefaultOverrides()
	if s.OverridesPath != "" {
		extra, err := annotate.LoadOverrides(s.OverridesPath)
		if err != nil {
			return nil, err
		}
		for id, o := range extra {
			overrides[id] = o
		}
	}

	var registry annotate.Registry
	if s.RegistryEnabled && !offline {
		client := clinvar.NewClient(s.RegistryURL, s.RegistryTimeout)
		client.SetRetries(s.RegistryRetries)
		client.SetAPIKey(s.RegistryAPIKey)
		client.SetLogger(c.logger)
		registry = client
	} else {
		c.logger.Info("registry lookups disabled")
	}

	r := annotate.NewResolver(registry, overrides)
	r.SetLogger(c.logger)
	return r, nil
}
