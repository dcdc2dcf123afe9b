package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the engine configuration loaded from a TOML file.
type Config struct {
	LogLevel string `toml:"log_level"`
	// AssetsDir is watched for changes; asset paths below are relative to it.
	AssetsDir string `toml:"assets_dir"`
	BaseAsset string `toml:"base_asset"`

	// DisplaySize is the largest dimension of a normalized model, in world units.
	DisplaySize float32 `toml:"display_size"`
	// SizeCategories maps a size label to its uniform scale multiplier.
	SizeCategories map[string]float32 `toml:"size_categories"`
	DefaultSize    string             `toml:"default_size"`

	Calibration CalibrationConfig       `toml:"calibration"`
	Families    map[string]FamilyConfig `toml:"accessory_families"`
	Slots       map[string]SlotConfig   `toml:"slots"`

	// GradientTargets restricts gradient shading to meshes whose name contains
	// one of the entries. Empty means every generic body mesh.
	GradientTargets []string `toml:"gradient_targets"`

	Classifier ClassifierConfig `toml:"classifier"`
}

type CalibrationConfig struct {
	// ReferenceTokens are the case-insensitive name fragments of reference nodes.
	ReferenceTokens []string `toml:"reference_tokens"`
	// KnownLengthCm is the physical length of a reference object.
	KnownLengthCm float32 `toml:"known_length_cm"`
	// VariantLengthsCm overrides KnownLengthCm for size-specific references.
	VariantLengthsCm map[string]float32 `toml:"variant_lengths_cm"`
	// FallbackAssets are searched in order when the base asset has no reference.
	FallbackAssets []string `toml:"fallback_assets"`
	// DefaultRatio, when positive, yields approximate dimensions for assets
	// without any reference. Zero disables dimension reporting for them.
	DefaultRatio float32 `toml:"default_ratio"`
}

// FamilyConfig describes one accessory library (hooks, bills, palettes).
type FamilyConfig struct {
	Library        string   `toml:"library"`
	DefaultVariant string   `toml:"default_variant"`
	AnchorPrefixes []string `toml:"anchor_prefixes"`
	// ClusterSize is the number of meshes nearest the anchor that make up a variant.
	ClusterSize int `toml:"cluster_size"`
	// SuspiciousFraction flags clusters covering at least this share of the library.
	SuspiciousFraction float32 `toml:"suspicious_fraction"`
}

// SlotConfig binds a parameter slot to an accessory family and a host socket.
type SlotConfig struct {
	Family string `toml:"family"`
	Socket string `toml:"socket"`
}

type ClassifierConfig struct {
	// Rules replaces the built-in rule table when non-empty.
	Rules []RuleConfig `toml:"rules"`
}

// RuleConfig is one row of the node classification table.
type RuleConfig struct {
	Role string `toml:"role"`
	// Field is "name" or "material".
	Field string `toml:"field"`
	// Match is "prefix", "contains" or "exact".
	Match   string `toml:"match"`
	Pattern string `toml:"pattern"`
	// Kind fixes the variant kind; empty derives it from the text after the pattern.
	Kind string `toml:"kind"`
}

// Default returns the complete built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		AssetsDir:   "assets",
		BaseAsset:   "lure.lure.yaml",
		DisplaySize: 1.5,
		SizeCategories: map[string]float32{
			"M":  1.0,
			"L":  1.25,
			"XL": 1.5,
		},
		DefaultSize: "M",
		Calibration: CalibrationConfig{
			ReferenceTokens: []string{"reference", "calibration", "ruler"},
			KnownLengthCm:   4.0,
		},
		Families: map[string]FamilyConfig{
			"hooks": {
				Library:            "hooks.lure.yaml",
				DefaultVariant:     "4",
				AnchorPrefixes:     []string{"anchor_", "anchor-", "anchor", "hook_anchor_", "attach_"},
				ClusterSize:        3,
				SuspiciousFraction: 0.5,
			},
			"bills": {
				Library:            "bills.lure.yaml",
				DefaultVariant:     "short",
				AnchorPrefixes:     []string{"anchor_", "anchor-", "bill_anchor_"},
				ClusterSize:        1,
				SuspiciousFraction: 0.5,
			},
		},
		Slots: map[string]SlotConfig{
			"belly_hook": {Family: "hooks", Socket: "socket_belly"},
			"tail_hook":  {Family: "hooks", Socket: "socket_tail"},
			"bill":       {Family: "bills", Socket: "socket_bill"},
		},
	}
}

// Load reads the TOML file at path on top of Default. A missing file yields
// the defaults and no error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.DisplaySize <= 0 {
		return fmt.Errorf("display_size must be positive, got %v", c.DisplaySize)
	}
	if len(c.SizeCategories) == 0 {
		return fmt.Errorf("at least one size category is required")
	}
	for name, s := range c.SizeCategories {
		if s <= 0 {
			return fmt.Errorf("size category %q must have a positive scale, got %v", name, s)
		}
	}
	if _, ok := c.SizeCategories[c.DefaultSize]; !ok {
		return fmt.Errorf("default_size %q is not a size category", c.DefaultSize)
	}
	if c.Calibration.KnownLengthCm <= 0 {
		return fmt.Errorf("calibration.known_length_cm must be positive")
	}
	for name, f := range c.Families {
		if f.ClusterSize < 1 {
			return fmt.Errorf("accessory family %q: cluster_size must be at least 1", name)
		}
		if len(f.AnchorPrefixes) == 0 {
			return fmt.Errorf("accessory family %q: at least one anchor prefix is required", name)
		}
	}
	for name, s := range c.Slots {
		if _, ok := c.Families[s.Family]; !ok {
			return fmt.Errorf("slot %q references unknown family %q", name, s.Family)
		}
		if s.Socket == "" {
			return fmt.Errorf("slot %q has no socket", name)
		}
	}
	return nil
}

// SizeScale returns the multiplier of the named size category, falling back
// to the default size for unknown names.
func (c *Config) SizeScale(size string) (float32, string) {
	if s, ok := c.SizeCategories[size]; ok {
		return s, size
	}
	return c.SizeCategories[c.DefaultSize], c.DefaultSize
}

// KnownLength returns the physical length of the reference for a size variant.
func (c *Config) KnownLength(variant string) float32 {
	for name, l := range c.Calibration.VariantLengthsCm {
		if strings.EqualFold(name, variant) && l > 0 {
			return l
		}
	}
	return c.Calibration.KnownLengthCm
}

// SizeNames returns the size category labels in a stable order.
func (c *Config) SizeNames() []string {
	out := make([]string, 0, len(c.SizeCategories))
	for name := range c.SizeCategories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SlotNames returns the configured slots in a stable order.
func (c *Config) SlotNames() []string {
	out := make([]string, 0, len(c.Slots))
	for name := range c.Slots {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
