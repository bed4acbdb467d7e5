// Package config loads process settings from .env, the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/smartcity/incidentmap/internal/cluster"
	"github.com/smartcity/incidentmap/internal/logging"
	"github.com/smartcity/incidentmap/internal/viewport"
)

// Storage drivers
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverHTTP     = "http"
	DriverMock     = "mock"
)

type Config struct {
	Port      string
	Env       string
	PublicDir string

	Database   DatabaseConfig
	Redis      RedisConfig
	Boundary   BoundaryConfig
	Map        MapConfig
	SessionTTL time.Duration
	Log        logging.Config
}

type DatabaseConfig struct {
	Driver       string
	URL          string
	SQLitePath   string
	IncidentsURL string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

type BoundaryConfig struct {
	File         string
	NameProperty string
}

// MapConfig holds the initial view and the clustering/fitting parameters
type MapConfig struct {
	CenterLat     float64 `json:"center_lat"`
	CenterLon     float64 `json:"center_lon"`
	Zoom          float64 `json:"zoom"`
	MinZoom       int     `json:"min_zoom"`
	MaxZoom       int     `json:"max_zoom"`
	PaddingX      float64 `json:"padding_x"`
	PaddingY      float64 `json:"padding_y"`
	ClusterRadius float64 `json:"cluster_radius_px"`
	MarkerRadius  float64 `json:"marker_radius_px"`
}

var defaults = map[string]any{
	"port":                   "8080",
	"go_env":                 "development",
	"public_dir":             "./public",
	"database_driver":        DriverPgx,
	"database_url":           "",
	"sqlite_path":            "./data/incidents.db",
	"incidents_url":          "",
	"redis_addr":             "",
	"redis_password":         "",
	"redis_db":               0,
	"snapshot_ttl":           "5m",
	"boundary_file":          "./public/MadhyaPradesh.json",
	"boundary_name_property": "NAME_2",
	"map_center_lat":         22.904047,
	"map_center_lon":         78.360745,
	"map_zoom":               6,
	"map_min_zoom":           0,
	"map_max_zoom":           18,
	"map_padding_x":          50,
	"map_padding_y":          50,
	"cluster_radius_px":      80,
	"marker_radius_px":       8,
	"session_ttl":            "30m",
	"log_level":              "info",
	"log_format":             "console",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads .env (if present), then the environment and CONFIG_FILE, and validates
func Load() (*Config, error) {
	// missing .env is fine; the process environment is used as is
	_ = godotenv.Load()

	v := newViper()
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:      v.GetString("port"),
		Env:       v.GetString("go_env"),
		PublicDir: v.GetString("public_dir"),
		Database: DatabaseConfig{
			Driver:       v.GetString("database_driver"),
			URL:          v.GetString("database_url"),
			SQLitePath:   v.GetString("sqlite_path"),
			IncidentsURL: v.GetString("incidents_url"),
		},
		Redis: RedisConfig{
			Addr:        v.GetString("redis_addr"),
			Password:    v.GetString("redis_password"),
			DB:          v.GetInt("redis_db"),
			SnapshotTTL: v.GetDuration("snapshot_ttl"),
		},
		Boundary: BoundaryConfig{
			File:         v.GetString("boundary_file"),
			NameProperty: v.GetString("boundary_name_property"),
		},
		Map: MapConfig{
			CenterLat:     v.GetFloat64("map_center_lat"),
			CenterLon:     v.GetFloat64("map_center_lon"),
			Zoom:          v.GetFloat64("map_zoom"),
			MinZoom:       v.GetInt("map_min_zoom"),
			MaxZoom:       v.GetInt("map_max_zoom"),
			PaddingX:      v.GetFloat64("map_padding_x"),
			PaddingY:      v.GetFloat64("map_padding_y"),
			ClusterRadius: v.GetFloat64("cluster_radius_px"),
			MarkerRadius:  v.GetFloat64("marker_radius_px"),
		},
		SessionTTL: v.GetDuration("session_ttl"),
		Log: logging.Config{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and the driver choice
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPgx, DriverPostgres, DriverSQLite, DriverMock:
	case DriverHTTP:
		if c.Database.IncidentsURL == "" {
			errs = append(errs, errors.New("INCIDENTS_URL is required for the http driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	m := c.Map
	if m.PaddingX < 0 || m.PaddingY < 0 {
		errs = append(errs, viewport.ErrNegativePadding)
	}
	if m.MinZoom > m.MaxZoom {
		errs = append(errs, fmt.Errorf("MAP_MIN_ZOOM %d exceeds MAP_MAX_ZOOM %d", m.MinZoom, m.MaxZoom))
	}
	if m.Zoom < float64(m.MinZoom) || m.Zoom > float64(m.MaxZoom) {
		errs = append(errs, fmt.Errorf("MAP_ZOOM %v outside [%d, %d]", m.Zoom, m.MinZoom, m.MaxZoom))
	}
	if m.ClusterRadius <= 0 || m.MarkerRadius <= 0 {
		errs = append(errs, errors.New("cluster and marker radii must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Padding is the viewport fitting padding in pixels
func (m MapConfig) Padding() viewport.Padding {
	return viewport.Padding{X: m.PaddingX, Y: m.PaddingY}
}

// ClusterOptions derives the clusterer settings
func (m MapConfig) ClusterOptions() cluster.Options {
	return cluster.Options{
		RadiusPx:       m.ClusterRadius,
		MarkerRadiusPx: m.MarkerRadius,
		MinZoom:        m.MinZoom,
		MaxZoom:        m.MaxZoom,
	}
}

// IsProduction reports GO_ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
