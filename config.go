package pathwise

import (
	"os"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// AppConfig carries the full runtime configuration. Values come from a YAML
// file with environment variable overrides for the secrets.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	CDN      CDNConfig      `yaml:"cdn"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type AuthConfig struct {
	SigningKey      string   `yaml:"signing_key"`
	SigningMethod   string   `yaml:"signing_method"`
	ContextKey      string   `yaml:"context_key"`
	TokenExpiration int      `yaml:"token_expiration"`
	TokenLookup     string   `yaml:"token_lookup"`
	AuthScheme      string   `yaml:"auth_scheme"`
	Issuer          string   `yaml:"issuer"`
	Audience        []string `yaml:"audience"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CDNConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
}

var _ Config = (*AppConfig)(nil)

// DefaultConfig returns a config usable for local development.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Address: ":8080",
		},
		Auth: AuthConfig{
			SigningMethod:   "HS256",
			ContextKey:      "user",
			TokenExpiration: 168,
			TokenLookup:     "header:Authorization",
			AuthScheme:      "Bearer",
			Issuer:          "pathwise",
			Audience:        []string{"pathwise"},
		},
		Database: DatabaseConfig{
			DSN: "file:pathwise.db?cache=shared&_pragma=foreign_keys(1)",
		},
		CDN: CDNConfig{
			Region: "auto",
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error so containers can
// run on env vars alone.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read config file").
					WithMetadata(map[string]any{"path": path})
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("PATHWISE_SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}

	if v := os.Getenv("PATHWISE_SIGNING_KEY"); v != "" {
		c.Auth.SigningKey = v
	}

	if v := os.Getenv("PATHWISE_TOKEN_EXPIRATION"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.Auth.TokenExpiration = hours
		}
	}

	if v := os.Getenv("PATHWISE_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv("PATHWISE_CDN_ENDPOINT"); v != "" {
		c.CDN.Endpoint = v
	}

	if v := os.Getenv("PATHWISE_CDN_BUCKET"); v != "" {
		c.CDN.Bucket = v
	}

	if v := os.Getenv("PATHWISE_CDN_ACCESS_KEY"); v != "" {
		c.CDN.AccessKey = v
	}

	if v := os.Getenv("PATHWISE_CDN_SECRET_KEY"); v != "" {
		c.CDN.SecretKey = v
	}

	if v := os.Getenv("PATHWISE_CDN_PUBLIC_URL"); v != "" {
		c.CDN.PublicURL = v
	}
}

func (c *AppConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return goerrors.New("auth signing key is required", goerrors.CategoryValidation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	if c.Auth.TokenExpiration <= 0 {
		c.Auth.TokenExpiration = 168
	}

	return nil
}

func (c *AppConfig) GetSigningKey() string { return c.Auth.SigningKey }

func (c *AppConfig) GetSigningMethod() string { return c.Auth.SigningMethod }

func (c *AppConfig) GetContextKey() string { return c.Auth.ContextKey }

// GetTokenExpiration is expressed in hours. The default of 168 keeps a
// session valid for seven days.
func (c *AppConfig) GetTokenExpiration() int { return c.Auth.TokenExpiration }

func (c *AppConfig) GetTokenLookup() string { return c.Auth.TokenLookup }

func (c *AppConfig) GetAuthScheme() string { return c.Auth.AuthScheme }

func (c *AppConfig) GetIssuer() string { return c.Auth.Issuer }

func (c *AppConfig) GetAudience() []string { return c.Auth.Audience }

// TokenTTL is the expiration as a duration, for callers that need to stamp
// absolute deadlines.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenExpiration) * time.Hour
}
