package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/AngelCh415/campaign-dashboard/internal/table"
	"github.com/AngelCh415/campaign-dashboard/internal/view"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	View    ViewConfig    `yaml:"view" mapstructure:"view"`
	CORS    CORSConfig    `yaml:"cors" mapstructure:"cors"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                  int `yaml:"port" mapstructure:"port"`
	ReadHeaderTimeoutSecs int `yaml:"read_header_timeout_secs" mapstructure:"read_header_timeout_secs"`
	ShutdownTimeoutSecs   int `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DatasetConfig points at the dataset file; empty means the bundled snapshot.
type DatasetConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ViewConfig seeds the table view.
type ViewConfig struct {
	RowsPerPage   int    `yaml:"rows_per_page" mapstructure:"rows_per_page"`
	SortField     string `yaml:"sort_field" mapstructure:"sort_field"`
	SortDirection string `yaml:"sort_direction" mapstructure:"sort_direction"`
	Locale        string `yaml:"locale" mapstructure:"locale"`
}

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout_secs", 10)
	v.SetDefault("server.shutdown_timeout_secs", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("dataset.path", "")
	v.SetDefault("view.rows_per_page", 10)
	v.SetDefault("view.sort_field", "impressions")
	v.SetDefault("view.sort_direction", "desc")
	v.SetDefault("view.locale", "en-US")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if _, err := c.ViewDefaults(); err != nil {
		return err
	}
	return nil
}

// ReadHeaderTimeout is the server's header read deadline.
func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeoutSecs) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSecs) * time.Second
}

// ViewDefaults converts the view section into the table view seed.
func (c *Config) ViewDefaults() (view.Defaults, error) {
	dir, err := table.ParseDirection(c.View.SortDirection)
	if err != nil {
		return view.Defaults{}, eris.Wrap(err, "config: view.sort_direction")
	}
	if !table.Sortable(c.View.SortField) {
		return view.Defaults{}, eris.Errorf("config: unknown view.sort_field %q", c.View.SortField)
	}
	if c.View.RowsPerPage <= 0 {
		return view.Defaults{}, eris.Errorf("config: view.rows_per_page must be positive, got %d", c.View.RowsPerPage)
	}
	loc, err := language.Parse(c.View.Locale)
	if err != nil {
		return view.Defaults{}, eris.Wrapf(err, "config: view.locale %q", c.View.Locale)
	}
	return view.Defaults{
		SortField:     c.View.SortField,
		SortDirection: dir,
		RowsPerPage:   c.View.RowsPerPage,
		Locale:        loc,
	}, nil
}

// InitLogger builds the global zap logger.
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
