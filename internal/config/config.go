package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/source"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Config holds the full application configuration.
type Config struct {
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Label    LabelConfig    `yaml:"label" mapstructure:"label"`
	Ramp     RampConfig     `yaml:"ramp" mapstructure:"ramp"`
	Symbol   SymbolConfig   `yaml:"symbol" mapstructure:"symbol"`
	Source   source.Config  `yaml:"source" mapstructure:"source"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Thematic ThematicConfig `yaml:"thematic" mapstructure:"thematic"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ClassifyConfig sets the default classification parameters.
type ClassifyConfig struct {
	Mode    string  `yaml:"mode" mapstructure:"mode"`
	Classes int     `yaml:"classes" mapstructure:"classes"`
	Method  string  `yaml:"method" mapstructure:"method"`
	MinSize float64 `yaml:"min_size" mapstructure:"min_size"`
	MaxSize float64 `yaml:"max_size" mapstructure:"max_size"`
}

// LabelConfig configures range label formatting.
type LabelConfig struct {
	Format             string `yaml:"format" mapstructure:"format"`
	Precision          int    `yaml:"precision" mapstructure:"precision"`
	TrimTrailingZeroes bool   `yaml:"trim_trailing_zeroes" mapstructure:"trim_trailing_zeroes"`
	AutoPrecision      bool   `yaml:"auto_precision" mapstructure:"auto_precision"`
}

// RampConfig defines the default color ramp. Gradient ramps interpolate
// between the listed colors; preset ramps cycle through them.
type RampConfig struct {
	Type   string   `yaml:"type" mapstructure:"type"`
	Colors []string `yaml:"colors" mapstructure:"colors"`
	Invert bool     `yaml:"invert" mapstructure:"invert"`
}

// SymbolConfig defines the source symbol cloned into each class.
type SymbolConfig struct {
	Type    string  `yaml:"type" mapstructure:"type"`
	Color   string  `yaml:"color" mapstructure:"color"`
	Outline string  `yaml:"outline" mapstructure:"outline"`
	Size    float64 `yaml:"size" mapstructure:"size"`
	Width   float64 `yaml:"width" mapstructure:"width"`
}

// StoreConfig configures the style store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures where class assignments are written.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CacheEntries   int      `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLSecs   int      `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ThematicConfig bounds multi-attribute classification.
type ThematicConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var (
	validRamps   = []string{symbology.RampGradient, symbology.RampPreset}
	validDrivers = []string{
		source.DriverMemory, source.DriverPostgres, source.DriverSQLite,
		source.DriverShapefile, source.DriverXLSX, source.DriverGeoJSON,
	}
	validStores  = []string{"sqlite", "postgres"}
)

// Load reads configuration from config.yaml, environment variables, and defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence; a named file
// must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CHOROPLETH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("classify.mode", "quantile")
	v.SetDefault("classify.classes", 5)
	v.SetDefault("classify.method", "color")
	v.SetDefault("classify.min_size", 1.0)
	v.SetDefault("classify.max_size", 8.0)
	v.SetDefault("label.format", "%1 - %2")
	v.SetDefault("label.precision", 4)
	v.SetDefault("label.trim_trailing_zeroes", false)
	v.SetDefault("label.auto_precision", false)
	v.SetDefault("ramp.type", "gradient")
	v.SetDefault("ramp.colors", []string{"#f7fbff", "#08306b"})
	v.SetDefault("symbol.type", "fill")
	v.SetDefault("symbol.color", "#808080")
	v.SetDefault("symbol.outline", "#232323")
	v.SetDefault("symbol.size", 2.0)
	v.SetDefault("symbol.width", 0.26)
	v.SetDefault("source.driver", "memory")
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.path", "")
	v.SetDefault("source.table", "")
	v.SetDefault("source.id_column", "id")
	v.SetDefault("source.geom_column", "")
	v.SetDefault("source.sheet", "")
	v.SetDefault("source.x_column", "")
	v.SetDefault("source.y_column", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "styles.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("export.database_url", "")
	v.SetDefault("export.table", "feature_classes")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_entries", 256)
	v.SetDefault("server.cache_ttl_secs", 300)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("thematic.max_concurrent", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of
// "classify", "serve" or "export".
func (c *Config) Validate(mode string) error {
	var problems []string

	if _, err := classify.ParseMode(c.Classify.Mode); err != nil {
		problems = append(problems, "classify.mode: "+err.Error())
	}
	if c.Classify.Classes < 1 || c.Classify.Classes > classify.MaxClasses {
		problems = append(problems, fmt.Sprintf("classify.classes must be between 1 and %d", classify.MaxClasses))
	}
	if _, err := symbology.ParseGraduatedMethod(c.Classify.Method); err != nil {
		problems = append(problems, "classify.method must be color or size")
	}
	if c.Classify.MinSize > c.Classify.MaxSize {
		problems = append(problems, "classify.min_size must not exceed classify.max_size")
	}
	if _, err := symbology.ParseSymbolType(c.Symbol.Type); err != nil {
		problems = append(problems, "symbol.type must be fill, line or marker")
	}
	if c.Label.Precision < symbology.MinPrecision || c.Label.Precision > symbology.MaxPrecision {
		problems = append(problems, "label.precision must be between -6 and 15")
	}
	if len(c.Ramp.Colors) == 0 {
		problems = append(problems, "ramp.colors must list at least one color")
	}
	for _, col := range c.Ramp.Colors {
		if _, err := symbology.ParseColor(col); err != nil {
			problems = append(problems, "ramp.colors: malformed color "+col)
		}
	}
	if !slices.Contains(validRamps, c.Ramp.Type) {
		problems = append(problems, "ramp.type must be gradient or preset")
	}
	if !slices.Contains(validDrivers, c.Source.Driver) {
		problems = append(problems, "source.driver must be one of "+strings.Join(validDrivers, ", "))
	}

	switch mode {
	case "classify":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must not be negative")
		}
		if c.Thematic.MaxConcurrent < 1 {
			problems = append(problems, "thematic.max_concurrent must be at least 1")
		}
		if !slices.Contains(validStores, c.Store.Driver) {
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres store")
		}
	case "export":
		if c.Export.DatabaseURL == "" {
			problems = append(problems, "export.database_url is required")
		}
		if c.Export.Table == "" {
			problems = append(problems, "export.table is required")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid %s configuration: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger configures the global zap logger based on config.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
