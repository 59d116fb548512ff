package tube

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig is the file/environment backed implementation of Config, plus
// the settings the server binary needs (listen address, database, storage).
// Values load from a YAML file when one is provided and environment
// variables overlay it.
type EnvConfig struct {
	Env  string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTP HTTPConfig `yaml:"http"`
	Auth AuthConfig `yaml:"auth"`
	DB   DBConfig   `yaml:"db"`
	S3   S3Settings `yaml:"s3"`
}

// HTTPConfig holds the HTTP server network settings.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr returns the address as host:port.
func (g HTTPConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// AuthConfig holds token issuance and validation settings. The two secrets
// are required and must differ so one token class never verifies against
// the other's key.
type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"240h"`
	Issuer             string        `yaml:"issuer" env:"ISSUER" env-default:"go-tube"`
	Audience           []string      `yaml:"audience" env:"AUDIENCE" env-default:"go-tube-client"`
	ContextKey         string        `yaml:"context_key" env:"AUTH_CONTEXT_KEY" env-default:"user"`
	TokenLookup        string        `yaml:"token_lookup" env:"AUTH_TOKEN_LOOKUP" env-default:"header:Authorization,cookie:accessToken"`
	AuthScheme         string        `yaml:"auth_scheme" env:"AUTH_SCHEME" env-default:"Bearer"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:"file::memory:?cache=shared"`
}

// S3Settings holds object storage settings. Optional: media endpoints stay
// disabled when the bucket is unset.
type S3Settings struct {
	Region        string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKey     string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	BaseEndpoint  string `yaml:"base_endpoint" env:"S3_BASE_ENDPOINT"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

var _ Config = (*EnvConfig)(nil)

func (c *EnvConfig) GetAccessTokenSecret() string  { return c.Auth.AccessTokenSecret }
func (c *EnvConfig) GetRefreshTokenSecret() string { return c.Auth.RefreshTokenSecret }

func (c *EnvConfig) GetAccessTokenExpiration() time.Duration  { return c.Auth.AccessTokenTTL }
func (c *EnvConfig) GetRefreshTokenExpiration() time.Duration { return c.Auth.RefreshTokenTTL }

func (c *EnvConfig) GetIssuer() string      { return c.Auth.Issuer }
func (c *EnvConfig) GetAudience() []string  { return c.Auth.Audience }
func (c *EnvConfig) GetContextKey() string  { return c.Auth.ContextKey }
func (c *EnvConfig) GetTokenLookup() string { return c.Auth.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string  { return c.Auth.AuthScheme }

// Validate rejects configurations the token service would refuse at request
// time, so a bad deployment fails at startup instead.
func (c *EnvConfig) Validate() error {
	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}

	if c.Auth.RefreshTokenSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}

	return nil
}

// MustLoadConfig wraps LoadConfig and panics on error.
func MustLoadConfig(path string) *EnvConfig {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig loads configuration in priority order: explicit path,
// CONFIG_PATH, ./local.yaml, then environment variables alone.
func LoadConfig(path string) (*EnvConfig, error) {
	var cfg EnvConfig

	tryRead := func(p string) (*EnvConfig, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}
		return c, c.Validate()
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}
		return c, c.Validate()
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		c, err := tryRead("local.yaml")
		if err != nil {
			return nil, err
		}
		return c, c.Validate()
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, cfg.Validate()
}
