package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Ingest     Ingest     `yaml:"ingest"`
	Index      Index      `yaml:"index"`
	Generation Generation `yaml:"generation"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	// File is the markdown table listing RSS feed URLs.
	File string `yaml:"file"`
	// DefaultFeed is used when an ingest request carries no URL.
	DefaultFeed string `yaml:"default_feed"`
}

type Ingest struct {
	MaxPerFeed        int `yaml:"max_per_feed"`
	ArticleCharBudget int `yaml:"article_char_budget"`
	MaxImages         int `yaml:"max_images"`
}

type Index struct {
	DataDir    string `yaml:"data_dir"`
	Collection string `yaml:"collection"`
}

type Generation struct {
	Provider             string `yaml:"provider"`
	Model                string `yaml:"model"`
	OllamaURL            string `yaml:"ollama_url"`
	EmbeddingModel       string `yaml:"embedding_model"`
	OpenAIModel          string `yaml:"openai_model"`
	OpenAIEmbeddingModel string `yaml:"openai_embedding_model"`
	APIKeyEnv            string `yaml:"api_key_env"`
	MaxTokens            int    `yaml:"max_tokens"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newsrag.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsrag")
}

// DataDir returns the XDG data directory for newsrag.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsrag")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsrag/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsrag init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			File:        "feedsources.md",
			DefaultFeed: "http://feeds.bbci.co.uk/news/rss.xml",
		},
		Ingest: Ingest{
			MaxPerFeed:        20,
			ArticleCharBudget: 2000,
			MaxImages:         3,
		},
		Index: Index{
			Collection: "news",
		},
		Generation: Generation{
			Provider:             "ollama",
			Model:                "qwen2.5:7b",
			OllamaURL:            "http://localhost:11434",
			EmbeddingModel:       "nomic-embed-text",
			OpenAIModel:          "gpt-4o-mini",
			OpenAIEmbeddingModel: "text-embedding-3-small",
			APIKeyEnv:            "OPENAI_API_KEY",
			MaxTokens:            512,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Index.DataDir != "" {
		return c.Index.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
