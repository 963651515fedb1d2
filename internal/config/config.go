// Package config loads pipeline configuration from an optional YAML file
// with environment overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "GLOSIGNAL_CONFIG"
	aiEndpointEnv   = "GLOSIGNAL_AI_URL"
	dbPathEnv       = "GLOSIGNAL_DB"
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
)

// Config holds all settings for the aggregation and enrichment pipeline.
type Config struct {
	Primary    FeedConfig       `yaml:"primary"`
	Secondary  []FeedConfig     `yaml:"secondary"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Proxies    []string         `yaml:"proxies"`
	AI         AIConfig         `yaml:"ai"`
	Poll       PollConfig       `yaml:"poll"`
	DBPath     string           `yaml:"dbPath"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// FeedConfig identifies a single syndication feed.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// RankingConfig points at the story-ranking API (id list + per-id detail).
type RankingConfig struct {
	TopURL   string `yaml:"topUrl"`   // returns a JSON array of numeric IDs
	ItemURL  string `yaml:"itemUrl"`  // fmt pattern with one %d for the ID
	ItemPage string `yaml:"itemPage"` // fmt pattern for the discussion permalink
}

// AIConfig configures the optional summarization backend. An empty URL
// disables AI enrichment entirely.
type AIConfig struct {
	URL string `yaml:"url"`
}

// PollConfig controls the poll loop cadence.
type PollConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// SummarizerConfig configures the summarizerd backend server.
type SummarizerConfig struct {
	Listen   string `yaml:"listen"`
	Upstream string `yaml:"upstream"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// Interval returns the poll interval as a duration.
func (p PollConfig) Interval() time.Duration {
	if p.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(p.IntervalMinutes) * time.Minute
}

// Default returns the built-in configuration mirroring the hosted product.
func Default() Config {
	return Config{
		Primary: FeedConfig{Name: "Techmeme", URL: "https://www.techmeme.com/feed.xml"},
		Secondary: []FeedConfig{
			{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
		},
		Ranking: RankingConfig{
			TopURL:   "https://hacker-news.firebaseio.com/v0/topstories.json",
			ItemURL:  "https://hacker-news.firebaseio.com/v0/item/%d.json",
			ItemPage: "https://news.ycombinator.com/item?id=%d",
		},
		Proxies: []string{
			"https://api.allorigins.win/raw?url=",
			"https://corsproxy.io/?",
		},
		Poll: PollConfig{IntervalMinutes: 5},
		DBPath: defaultDBPath(),
		Summarizer: SummarizerConfig{
			Listen:   ":8787",
			Upstream: "https://api.anthropic.com/v1/messages",
			Model:    "claude-sonnet-4-5-20250929",
		},
	}
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Missing or malformed files fall back to defaults.
func Load() Config {
	cfg := Default()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath()
	}
	if raw, err := os.ReadFile(path); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "config: cannot parse %s: %v (using defaults)\n", path, err)
		} else {
			cfg = merge(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(aiEndpointEnv); v != "" {
		c.AI.URL = v
	}
	if v := os.Getenv(dbPathEnv); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Summarizer.APIKey = v
	}
}

func merge(base, override Config) Config {
	if override.Primary.URL != "" {
		base.Primary = override.Primary
	}
	if len(override.Secondary) > 0 {
		base.Secondary = override.Secondary
	}
	if override.Ranking.TopURL != "" {
		base.Ranking = override.Ranking
	}
	if len(override.Proxies) > 0 {
		base.Proxies = override.Proxies
	}
	if override.AI.URL != "" {
		base.AI = override.AI
	}
	if override.Poll.IntervalMinutes > 0 {
		base.Poll = override.Poll
	}
	if override.DBPath != "" {
		base.DBPath = override.DBPath
	}
	if override.Summarizer.Listen != "" {
		base.Summarizer.Listen = override.Summarizer.Listen
	}
	if override.Summarizer.Upstream != "" {
		base.Summarizer.Upstream = override.Summarizer.Upstream
	}
	if override.Summarizer.Model != "" {
		base.Summarizer.Model = override.Summarizer.Model
	}
	if override.Summarizer.APIKey != "" {
		base.Summarizer.APIKey = override.Summarizer.APIKey
	}
	return base
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "glosignal.yaml"
	}
	return filepath.Join(home, ".glosignal", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "glosignal.db"
	}
	return filepath.Join(home, ".glosignal", "glosignal.db")
}
