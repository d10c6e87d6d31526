package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/crudgen/pkg/ratelimit"
	"github.com/getmockd/crudgen/pkg/route"
	"github.com/getmockd/crudgen/pkg/server"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store/sqlstore"
)

// Store drivers. Everything except DriverMemory is backed by sqlstore.
const (
	DriverMemory   = "memory"
	DriverSQLite   = sqlstore.DriverSQLite
	DriverPostgres = sqlstore.DriverPostgres
	DriverMySQL    = sqlstore.DriverMySQL
)

// Config is the root of a crudgen configuration file.
type Config struct {
	Server    ServerConfig     `json:"server" yaml:"server"`
	Logging   LoggingConfig    `json:"logging" yaml:"logging"`
	Store     StoreConfig      `json:"store" yaml:"store"`
	Resources []ResourceConfig `json:"resources" yaml:"resources" validate:"dive"`
}

// ServerConfig configures the HTTP listener. Timeouts are in seconds.
type ServerConfig struct {
	Port            int             `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     int             `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty" validate:"gte=0"`
	WriteTimeout    int             `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty" validate:"gte=0"`
	ShutdownTimeout int             `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty" validate:"gte=0"`
	OpenAPIPath     string          `json:"openapiPath,omitempty" yaml:"openapiPath,omitempty" validate:"omitempty,startswith=/"`
	MetricsPath     string          `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty" validate:"omitempty,startswith=/"`
	Title           string          `json:"title,omitempty" yaml:"title,omitempty"`
	CORS            CORSConfig      `json:"cors" yaml:"cors"`
	RateLimit       RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// RateLimitConfig limits resource requests per client address.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty" yaml:"requestsPerSecond,omitempty" validate:"gte=0"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty" validate:"gte=0"`
}

// CORSConfig enables cross-origin requests.
type CORSConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
}

// LoggingConfig selects the log level and format. File, when set, receives a
// JSON copy of every record.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// StoreConfig selects the record store and declares its tables.
type StoreConfig struct {
	Driver          string                 `json:"driver" yaml:"driver" validate:"required,oneof=memory sqlite postgres mysql"`
	DSN             string                 `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	MaxOpenConns    int                    `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty" validate:"gte=0"`
	MaxIdleConns    int                    `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty" validate:"gte=0"`
	ConnMaxLifetime int                    `json:"connMaxLifetime,omitempty" yaml:"connMaxLifetime,omitempty" validate:"gte=0"`
	Tables          []sqlstore.TableSchema `json:"tables" yaml:"tables" validate:"dive"`
}

// ResourceConfig exposes a table under a resource chain.
type ResourceConfig struct {
	Chain    Chain           `json:"chain" yaml:"chain" validate:"required,min=1,dive,required"`
	Table    string          `json:"table" yaml:"table" validate:"required"`
	Relation *RelationConfig `json:"relation,omitempty" yaml:"relation,omitempty"`
	Custom   CustomActions   `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// RelationConfig selects the relation strategy for a resource.
type RelationConfig struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	PrimaryKey string `json:"primaryKey" yaml:"primaryKey" validate:"required"`
}

// Chain is a resource chain that may be written as a single name or a list.
type Chain []string

// UnmarshalYAML accepts `chain: person` as well as `chain: [person, child]`.
func (c *Chain) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*c = Chain{name}
		return nil
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return fmt.Errorf("chain must be a name or a list of names: %w", err)
	}
	*c = names
	return nil
}

// UnmarshalJSON accepts a string or an array of strings.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Chain{name}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("chain must be a name or a list of names: %w", err)
	}
	*c = names
	return nil
}

// Route returns the chain as a route.Chain.
func (c Chain) Route() route.Chain {
	return route.Chain(c)
}

// Strategy returns the service strategy of the resource. Custom actions take
// precedence; the relation or direct strategy serves the remaining actions.
func (r ResourceConfig) Strategy() (service.Strategy, error) {
	var rel *service.Relation
	if r.Relation != nil {
		rel = &service.Relation{Name: r.Relation.Name, PrimaryKey: r.Relation.PrimaryKey}
	}
	if len(r.Custom) == 0 {
		return service.Select(nil, rel), nil
	}
	fn, err := r.Custom.compile(service.Select(nil, rel))
	if err != nil {
		return nil, err
	}
	return service.Select(fn, rel), nil
}

// Default returns a configuration that serves nothing from an in-memory store.
func Default() *Config {
	def := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:            def.Port,
			ReadTimeout:     int(def.ReadTimeout / time.Second),
			WriteTimeout:    int(def.WriteTimeout / time.Second),
			ShutdownTimeout: int(def.ShutdownTimeout / time.Second),
			OpenAPIPath:     "/openapi.json",
			MetricsPath:     "/metrics",
			Title:           "crudgen",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
	}
}

// ServerConfig converts to the server package configuration.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Port:            c.Server.Port,
		ReadTimeout:     seconds(c.Server.ReadTimeout),
		WriteTimeout:    seconds(c.Server.WriteTimeout),
		ShutdownTimeout: seconds(c.Server.ShutdownTimeout),
		OpenAPIPath:     c.Server.OpenAPIPath,
		MetricsPath:     c.Server.MetricsPath,
		CORS: server.CORSConfig{
			Enabled:      c.Server.CORS.Enabled,
			AllowOrigins: c.Server.CORS.AllowOrigins,
		},
		RateLimit: ratelimit.Config{
			RequestsPerSecond: c.Server.RateLimit.RequestsPerSecond,
			Burst:             c.Server.RateLimit.Burst,
		},
	}
}

// SQLConfig converts the store section for sqlstore.Open.
func (c *Config) SQLConfig() sqlstore.Config {
	return sqlstore.Config{
		Driver:          c.Store.Driver,
		DSN:             c.Store.DSN,
		MaxOpenConns:    c.Store.MaxOpenConns,
		MaxIdleConns:    c.Store.MaxIdleConns,
		ConnMaxLifetime: seconds(c.Store.ConnMaxLifetime),
	}
}

// Table returns the declared table with the given name.
func (c *Config) Table(name string) (sqlstore.TableSchema, bool) {
	for _, t := range c.Store.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return sqlstore.TableSchema{}, false
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
