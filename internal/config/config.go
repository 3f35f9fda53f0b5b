package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "orgdigest"

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// PageConfig drives one scraped category (research or docs).
type PageConfig struct {
	Label                string   `yaml:"label"`
	Limit                int      `yaml:"limit"`
	RenderLimit          int      `yaml:"render_limit"`
	DescriptionBudget    int      `yaml:"description_budget"`
	MinTitleLength       int      `yaml:"min_title_length"`
	SeenPrefix           string   `yaml:"seen_prefix,omitempty"`
	Sources              []Source `yaml:"sources"`
	Selectors            []string `yaml:"selectors"`
	DescriptionSelectors []string `yaml:"description_selectors"`
	SkipKeywords         []string `yaml:"skip_keywords"`
}

type GitHubConfig struct {
	Org         string `yaml:"org"`
	TokenEnv    string `yaml:"token_env"`
	Lookback    string `yaml:"lookback"`
	MaxRepos    int    `yaml:"max_repos"`
	MaxCommits  int    `yaml:"max_commits"`
	MaxReleases int    `yaml:"max_releases"`
	RenderLimit int    `yaml:"render_limit"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

type IndexConfig struct {
	Path   string `yaml:"path"`
	Marker string `yaml:"marker"`
	Rows   int    `yaml:"rows"`
}

type LedgerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"`
	Retention string `yaml:"retention"`
}

type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

type PublishConfig struct {
	S3 S3Config `yaml:"s3"`
}

type Config struct {
	OutputDir string        `yaml:"output_dir"`
	Timeout   string        `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Research  PageConfig    `yaml:"research"`
	Docs      PageConfig    `yaml:"docs"`
	GitHub    GitHubConfig  `yaml:"github"`
	Index     IndexConfig   `yaml:"index"`
	Ledger    LedgerConfig  `yaml:"ledger"`
	Publish   PublishConfig `yaml:"publish"`
}

// GitHubToken returns the optional API credential from the configured env var.
func (c *Config) GitHubToken() string {
	name := c.GitHub.TokenEnv
	if name == "" {
		name = "GITHUB_TOKEN"
	}
	return os.Getenv(name)
}

func (c *Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

func (c *Config) LookbackDuration() time.Duration {
	return parseDuration(c.GitHub.Lookback, 2*24*time.Hour)
}

func (c *Config) RetentionDuration() time.Duration {
	return parseDuration(c.Ledger.Retention, 90*24*time.Hour)
}

// EnabledSources filters a source list down to the enabled entries.
func EnabledSources(sources []Source) []Source {
	var out []Source
	for _, s := range sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// PublishEnabled reports whether generated files are uploaded after a run.
func (c *Config) PublishEnabled() bool {
	return c.Publish.S3.Bucket != ""
}

// ParseDays parses a duration that may use the "Nd" day suffix.
func ParseDays(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := ParseDays(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// LedgerPath returns the configured ledger DB path or the XDG cache default.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(xdg.CacheHome, appName, "ledger.db")
}

// LoadEnv reads a .env file from the working directory if one exists.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the user config over the embedded defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("output_dir is required")
	}
	if err := validatePage("research", cfg.Research); err != nil {
		return err
	}
	if err := validatePage("docs", cfg.Docs); err != nil {
		return err
	}
	if cfg.GitHub.Org == "" {
		return fmt.Errorf("github: org is required")
	}
	if cfg.GitHub.MaxRepos <= 0 || cfg.GitHub.MaxCommits <= 0 || cfg.GitHub.MaxReleases <= 0 {
		return fmt.Errorf("github: max_repos, max_commits and max_releases must be positive")
	}
	if cfg.Index.Marker == "" {
		return fmt.Errorf("index: marker is required")
	}
	return nil
}

func validatePage(name string, p PageConfig) error {
	validTypes := map[string]bool{"html": true, "rss": true, "atom": true}
	if p.Limit <= 0 || p.DescriptionBudget <= 0 {
		return fmt.Errorf("%s: limit and description_budget must be positive", name)
	}
	for i, s := range p.Sources {
		if s.URL == "" {
			return fmt.Errorf("%s source %d: url is required", name, i)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("%s source %q: invalid url: %w", name, s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s source %q: url scheme must be http or https, got %q", name, s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("%s source %q: unknown type %q (valid: html, rss, atom)", name, s.Name, s.Type)
		}
	}
	return nil
}
