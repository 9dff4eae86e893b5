package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "missionboard.yml"

// Config models missionboard.yml.
type Config struct {
	Board struct {
		Name          string `yaml:"name" json:"name"`
		Currency      string `yaml:"currency" json:"currency"`
		PageSize      int    `yaml:"page_size" json:"page_size"`
		// MaxSavedLists caps the in-memory saved list registry.
		MaxSavedLists int    `yaml:"max_saved_lists" json:"max_saved_lists"`
	} `yaml:"board" json:"board"`
	Server struct {
		Addr        string   `yaml:"addr" json:"addr"`
		BasePath    string   `yaml:"base_path" json:"base_path"`
		CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	} `yaml:"server" json:"server"`
	Taxonomy []MainCategory `yaml:"taxonomy" json:"taxonomy"`
	Images   struct {
		Default    []string            `yaml:"default" json:"default"`
		Categories map[string][]string `yaml:"categories" json:"categories"`
	} `yaml:"images" json:"images"`
}

type MainCategory struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Icon          string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

// Load reads and validates config from a directory.
func Load(dir string) (*Config, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; write one with mb config default > %s", path, FileName)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Board.PageSize <= 0 {
		return fmt.Errorf("config.board.page_size must be positive")
	}
	if c.Board.MaxSavedLists <= 0 {
		return fmt.Errorf("config.board.max_saved_lists must be positive")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	seen := make(map[string]struct{}, len(c.Taxonomy))
	for i, mc := range c.Taxonomy {
		if strings.TrimSpace(mc.ID) == "" {
			return fmt.Errorf("config.taxonomy[%d].id is required", i)
		}
		if _, dup := seen[mc.ID]; dup {
			return fmt.Errorf("config.taxonomy has duplicate id %s", mc.ID)
		}
		seen[mc.ID] = struct{}{}
		for _, sub := range mc.Subcategories {
			if strings.TrimSpace(sub) == "" {
				return fmt.Errorf("main category %s has empty subcategory", mc.ID)
			}
		}
	}
	if len(c.Images.Default) == 0 {
		return fmt.Errorf("config.images.default is required")
	}
	if err := validateURLs("default", c.Images.Default); err != nil {
		return err
	}
	for category, urls := range c.Images.Categories {
		if category == "" {
			return fmt.Errorf("config.images.categories has empty category label")
		}
		if len(urls) == 0 {
			return fmt.Errorf("image category %s has no candidates", category)
		}
		if err := validateURLs(category, urls); err != nil {
			return err
		}
	}
	return nil
}

func validateURLs(label string, urls []string) error {
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("image category %s has empty url", label)
		}
	}
	return nil
}

// Path returns the config file path for a directory.
func Path(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Sections left
// out of the document keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	// Replace rather than merge list and map sections that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if _, ok := raw["taxonomy"]; ok {
		cfg.Taxonomy = nil
	}
	if images, ok := raw["images"].(map[string]any); ok {
		if _, ok := images["default"]; ok {
			cfg.Images.Default = nil
		}
		if _, ok := images["categories"]; ok {
			cfg.Images.Categories = nil
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// TaxonomyByID looks up a main category by id.
func (c *Config) TaxonomyByID(id string) (MainCategory, bool) {
	for _, mc := range c.Taxonomy {
		if mc.ID == id {
			return mc, true
		}
	}
	return MainCategory{}, false
}

const defaultTemplate = `board:
  name: UOS Missions
  currency: UOS
  page_size: 9
  max_saved_lists: 1000

server:
  addr: 127.0.0.1:8080
  base_path: /v0
  cors_origins: ["*"]

taxonomy:
  - id: development
    name: Développement
    icon: code
    subcategories: [React, Node.js, API, Mobile, Frontend, Backend, DevOps]
  - id: design
    name: Design
    icon: palette
    subcategories: [UI, UX, Figma, Logo, Illustration, Branding]
  - id: marketing
    name: Marketing
    icon: megaphone
    subcategories: [SEO, Social Media, Growth, Communauté, Ads]
  - id: writing
    name: Rédaction
    icon: pen
    subcategories: [Rédaction, Traduction, Copywriting, Documentation, Blog]
  - id: data
    name: Data
    icon: chart
    subcategories: [Analyse, Dashboard, Machine Learning, Python, SQL]
  - id: blockchain
    name: Blockchain
    icon: link
    subcategories: [Solidity, Smart Contract, Web3, NFT, DeFi, Audit]

images:
  default:
    - https://images.unsplash.com/photo-1497366216548-37526070297c?w=800
    - https://images.unsplash.com/photo-1522071820081-009f0129c71c?w=800
    - https://images.unsplash.com/photo-1517245386807-bb43f82c33c4?w=800
    - https://images.unsplash.com/photo-1553877522-43269d4ea984?w=800
  categories:
    Développement:
      - https://images.unsplash.com/photo-1498050108023-c5249f4df085?w=800
      - https://images.unsplash.com/photo-1461749280684-dccba630e2f6?w=800
      - https://images.unsplash.com/photo-1555066931-4365d14bab8c?w=800
      - https://images.unsplash.com/photo-1517694712202-14dd9538aa97?w=800
      - https://images.unsplash.com/photo-1504639725590-34d0984388bd?w=800
    Design:
      - https://images.unsplash.com/photo-1561070791-2526d30994b5?w=800
      - https://images.unsplash.com/photo-1558655146-9f40138edfeb?w=800
      - https://images.unsplash.com/photo-1586717791821-3f44a563fa4c?w=800
      - https://images.unsplash.com/photo-1609921212029-bb5a28e60960?w=800
    Marketing:
      - https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=800
      - https://images.unsplash.com/photo-1533750349088-cd871a92f312?w=800
      - https://images.unsplash.com/photo-1557838923-2985c318be48?w=800
    Rédaction:
      - https://images.unsplash.com/photo-1455390582262-044cdead277a?w=800
      - https://images.unsplash.com/photo-1486312338219-ce68d2c6f44d?w=800
      - https://images.unsplash.com/photo-1471107340929-a87cd0f5b5f3?w=800
    Data:
      - https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=800
      - https://images.unsplash.com/photo-1543286386-713bdd548da4?w=800
      - https://images.unsplash.com/photo-1504868584819-f8e8b4b6d7e3?w=800
    Blockchain:
      - https://images.unsplash.com/photo-1639762681485-074b7f938ba0?w=800
      - https://images.unsplash.com/photo-1621761191319-c6fb62004040?w=800
      - https://images.unsplash.com/photo-1639322537228-f710d846310a?w=800
      - https://images.unsplash.com/photo-1620321023374-d1a68fbc720d?w=800
`
