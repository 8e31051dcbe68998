// Package config holds the dashboard settings. Values come from built-in
// defaults, an optional JSON file, the process environment (optionally
// seeded from a .env file) and command-line flags, in increasing order of
// precedence. Flags are applied by the binaries in cmd/.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultConfigPath is the canonical defaults file checked into the repo.
const DefaultConfigPath = "config/treecover.defaults.json"

// Built-in defaults, matching the Global Forest Watch country export and the
// Natural Earth 1:110m admin-0 boundaries.
const (
	DefaultLossPath        = "data/treecover_loss__ha.csv"
	DefaultBoundaryPath    = "data/ne_110m_admin_0_countries.shp"
	DefaultListen          = ":8050"
	DefaultTitle           = "Global Deforestation Analysis"
	DefaultMarkerScale     = 1e6
	DefaultDuplicatePolicy = DuplicateLast
	DefaultSessionTTL      = 30 * time.Minute
)

// DuplicatePolicy decides which record survives when the loss table holds
// more than one row for the same country and year.
type DuplicatePolicy string

const (
	DuplicateLast   DuplicatePolicy = "last"
	DuplicateFirst  DuplicatePolicy = "first"
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy accepts "last", "first" or "reject" (any case).
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DuplicateLast, DuplicateFirst, DuplicateReject:
		return p, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (want last, first or reject)", s)
}

// LossColumns names the CSV header cells read by the loss loader.
type LossColumns struct {
	ISO      string `json:"iso"`
	Year     string `json:"year"`
	Hectares string `json:"hectares"`
	CO2      string `json:"co2"`
}

// DefaultLossColumns returns the column names of the GFW country export.
func DefaultLossColumns() LossColumns {
	return LossColumns{
		ISO:      "iso",
		Year:     "umd_tree_cover_loss__year",
		Hectares: "umd_tree_cover_loss__ha",
		CO2:      "gfw_gross_emissions_co2e_all_gases__Mg",
	}
}

// BoundaryColumns names the boundary attributes used for the join key and
// the marker popup.
type BoundaryColumns struct {
	SovereignISO  string `json:"sovereign_iso"`
	SovereignName string `json:"sovereign_name"`
}

// DefaultBoundaryColumns returns the Natural Earth attribute names.
func DefaultBoundaryColumns() BoundaryColumns {
	return BoundaryColumns{SovereignISO: "SOV_A3", SovereignName: "SOVEREIGNT"}
}

// DashboardConfig is the root configuration. Nil fields fall back to the
// defaults above through the Get* methods, so partial files are safe.
type DashboardConfig struct {
	LossPath        *string          `json:"loss_path,omitempty"`
	BoundaryPath    *string          `json:"boundary_path,omitempty"`
	Listen          *string          `json:"listen,omitempty"`
	Title           *string          `json:"title,omitempty"`
	MarkerScale     *float64         `json:"marker_scale,omitempty"`
	DuplicatePolicy *string          `json:"duplicate_policy,omitempty"`
	SessionTTL      *string          `json:"session_ttl,omitempty"` // duration string like "30m"
	AssetsHost      *string          `json:"assets_host,omitempty"`
	LossColumns     *LossColumns     `json:"loss_columns,omitempty"`
	BoundaryColumns *BoundaryColumns `json:"boundary_columns,omitempty"`
}

// EmptyConfig returns a config with every field unset.
func EmptyConfig() *DashboardConfig {
	return &DashboardConfig{}
}

// LoadConfig reads a DashboardConfig from a JSON file. The path must have a
// .json extension and the file must be under 1MB.
func LoadConfig(path string) (*DashboardConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvLossPath        = "TREECOVER_LOSS_PATH"
	EnvBoundaryPath    = "TREECOVER_BOUNDARY_PATH"
	EnvListen          = "TREECOVER_LISTEN"
	EnvTitle           = "TREECOVER_TITLE"
	EnvMarkerScale     = "TREECOVER_MARKER_SCALE"
	EnvDuplicatePolicy = "TREECOVER_DUPLICATE_POLICY"
	EnvSessionTTL      = "TREECOVER_SESSION_TTL"
	EnvAssetsHost      = "TREECOVER_ASSETS_HOST"
)

// LoadDotEnv copies the variables in the given .env files (default ".env")
// into the process environment without overriding variables already set.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// ReadDotEnv parses .env files into a map without touching the process
// environment.
func ReadDotEnv(paths ...string) (map[string]string, error) {
	return godotenv.Read(paths...)
}

// MapLookup adapts a map to the lookup signature taken by ApplyEnv.
func MapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// ApplyEnv overrides fields from the TREECOVER_* variables found by lookup
// (usually os.LookupEnv) and revalidates.
func (c *DashboardConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst **string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = &v
		}
	}
	str(EnvLossPath, &c.LossPath)
	str(EnvBoundaryPath, &c.BoundaryPath)
	str(EnvListen, &c.Listen)
	str(EnvTitle, &c.Title)
	str(EnvDuplicatePolicy, &c.DuplicatePolicy)
	str(EnvSessionTTL, &c.SessionTTL)
	str(EnvAssetsHost, &c.AssetsHost)

	if v, ok := lookup(EnvMarkerScale); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMarkerScale, err)
		}
		c.MarkerScale = &f
	}
	return c.Validate()
}

// Validate checks the values that are set.
func (c *DashboardConfig) Validate() error {
	if c.MarkerScale != nil && !(*c.MarkerScale > 0) {
		return fmt.Errorf("marker_scale must be positive, got %v", *c.MarkerScale)
	}
	if c.DuplicatePolicy != nil {
		if _, err := ParseDuplicatePolicy(*c.DuplicatePolicy); err != nil {
			return err
		}
	}
	if c.SessionTTL != nil && *c.SessionTTL != "" {
		d, err := time.ParseDuration(*c.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl '%s': %w", *c.SessionTTL, err)
		}
		if d <= 0 {
			return fmt.Errorf("session_ttl must be positive, got %s", d)
		}
	}
	if c.LossColumns != nil {
		lc := c.LossColumns
		for name, v := range map[string]string{"iso": lc.ISO, "year": lc.Year, "hectares": lc.Hectares, "co2": lc.CO2} {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("loss_columns.%s must not be empty", name)
			}
		}
	}
	if c.BoundaryColumns != nil {
		if strings.TrimSpace(c.BoundaryColumns.SovereignISO) == "" || strings.TrimSpace(c.BoundaryColumns.SovereignName) == "" {
			return fmt.Errorf("boundary_columns entries must not be empty")
		}
	}
	return nil
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// GetLossPath returns the loss CSV path or the default.
func (c *DashboardConfig) GetLossPath() string { return stringOr(c.LossPath, DefaultLossPath) }

// GetBoundaryPath returns the boundary file path or the default.
func (c *DashboardConfig) GetBoundaryPath() string {
	return stringOr(c.BoundaryPath, DefaultBoundaryPath)
}

// GetListen returns the HTTP listen address or the default.
func (c *DashboardConfig) GetListen() string { return stringOr(c.Listen, DefaultListen) }

// GetTitle returns the page title or the default.
func (c *DashboardConfig) GetTitle() string { return stringOr(c.Title, DefaultTitle) }

// GetAssetsHost returns the ECharts asset host, or "" for the library default.
func (c *DashboardConfig) GetAssetsHost() string { return stringOr(c.AssetsHost, "") }

// GetMarkerScale returns the hectares-per-pixel marker divisor.
func (c *DashboardConfig) GetMarkerScale() float64 {
	if c.MarkerScale == nil {
		return DefaultMarkerScale
	}
	return *c.MarkerScale
}

// GetDuplicatePolicy returns the parsed policy, or the default when unset or
// unparsable.
func (c *DashboardConfig) GetDuplicatePolicy() DuplicatePolicy {
	if c.DuplicatePolicy == nil {
		return DefaultDuplicatePolicy
	}
	p, err := ParseDuplicatePolicy(*c.DuplicatePolicy)
	if err != nil {
		return DefaultDuplicatePolicy
	}
	return p
}

// GetSessionTTL parses SessionTTL, falling back to the default.
func (c *DashboardConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL == nil || *c.SessionTTL == "" {
		return DefaultSessionTTL
	}
	d, err := time.ParseDuration(*c.SessionTTL)
	if err != nil || d <= 0 {
		return DefaultSessionTTL
	}
	return d
}

// GetLossColumns returns the configured loss columns or the defaults.
func (c *DashboardConfig) GetLossColumns() LossColumns {
	if c.LossColumns == nil {
		return DefaultLossColumns()
	}
	return *c.LossColumns
}

// GetBoundaryColumns returns the configured boundary columns or the defaults.
func (c *DashboardConfig) GetBoundaryColumns() BoundaryColumns {
	if c.BoundaryColumns == nil {
		return DefaultBoundaryColumns()
	}
	return *c.BoundaryColumns
}
