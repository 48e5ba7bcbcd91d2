// Package configuration loads the authority's configuration from
// environment variables (spec §6 "External Interfaces" / "Environment
// variables recognised"), in the teacher's envconfig+defaults idiom but
// without the intermediate YAML file — this spec's surface is flat enough
// to live directly in the process environment.
package configuration

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Cfg is the authority's full configuration.
type Cfg struct {
	HostProtocol string `envconfig:"HOST_PROTOCOL" default:"http"`
	HostURL      string `envconfig:"HOST_URL" default:"127.0.0.1"`
	HostPort     int    `envconfig:"HOST_PORT" default:"1500"`
	APIVersion   string `envconfig:"API_VERSION" default:"v1"`
	IsLocal      bool   `envconfig:"IS_LOCAL" default:"true"`
	OpenAPIPath  string `envconfig:"OPENAPI_PATH"`
	KeysPath     string `envconfig:"KEYS_PATH" default:"./keys"`

	DB DB

	Wallet Wallet

	// Production toggles the logger between development (colorized,
	// console) and production (JSON) encoders.
	Production bool   `envconfig:"PRODUCTION" default:"false"`
	LogPath    string `envconfig:"LOG_PATH"`

	// Redis, when Addr is set, fronts the interaction/issuing secondary
	// index lookups with a cache-aside layer (spec §4.5 persistence
	// contract; see internal/storage/rediscache).
	Redis Redis
}

// DB configures the relational persistence backend (spec §6: DB_TYPE
// defaults to postgres; the core only depends on the store.Store contract,
// internal/storage/postgres is the concrete implementation these fields
// drive).
type DB struct {
	Type     string `envconfig:"DB_TYPE" default:"postgres"`
	URL      string `envconfig:"DB_URL" default:"127.0.0.1"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"authority"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_DATABASE" default:"authority"`
}

// Wallet configures the remote wallet gateway (spec §4 "Wallet Gateway").
type Wallet struct {
	Protocol string `envconfig:"WALLET_API_PROTOCOL" default:"http"`
	URL      string `envconfig:"WALLET_API_URL" default:"127.0.0.1"`
	Port     int    `envconfig:"WALLET_API_PORT" default:"1600"`
	Type     string `envconfig:"WALLET_TYPE" default:"basic"`
	Name     string `envconfig:"WALLET_NAME"`
	Email    string `envconfig:"WALLET_EMAIL"`
	Password string `envconfig:"WALLET_PASSWORD"`
}

// Redis optionally fronts hot secondary-index lookups.
type Redis struct {
	Addr string `envconfig:"REDIS_ADDR"`
}

// New parses Cfg from the process environment.
func New(ctx context.Context) (*Cfg, error) {
	log := logger.NewSimple("configuration")
	log.Info("reading environment")

	cfg := &Cfg{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return nil, err
		}
		// No fields currently carry `validate` tags requiring values beyond
		// their defaults; kept for parity with the teacher's config
		// pipeline (pkg/helpers.Check) so future required fields are caught
		// the same way.
	}

	return cfg, nil
}

// HostBase returns "<protocol>://<host>:<port>".
func (c *Cfg) HostBase() string {
	return fmt.Sprintf("%s://%s:%d", c.HostProtocol, c.HostURL, c.HostPort)
}

// WalletBase returns "<protocol>://<host>:<port>" for the wallet gateway.
func (w *Wallet) WalletBase() string {
	return fmt.Sprintf("%s://%s:%d", w.Protocol, w.URL, w.Port)
}
