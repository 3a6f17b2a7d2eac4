package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models vowline.yml.
type Config struct {
	Timeline struct {
		WindowStartHour    int `yaml:"window_start_hour"`
		MinDurationMinutes int `yaml:"min_duration_minutes"`
	} `yaml:"timeline"`
	Lanes struct {
		Catalog map[string]struct {
			Description string `yaml:"description"`
		} `yaml:"catalog"`
	} `yaml:"lanes"`
	RBAC struct {
		Roles map[string]Role `yaml:"roles"`
	} `yaml:"rbac"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

type Role struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret,omitempty"`
	Events         []string `yaml:"events,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty"`
}

// Load reads and validates config from the workspace, falling back to the
// built-in defaults when vowline.yml is absent.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Timeline.WindowStartHour < 0 || c.Timeline.WindowStartHour > 23 {
		return fmt.Errorf("config.timeline.window_start_hour must be 0-23")
	}
	if c.Timeline.MinDurationMinutes < 1 {
		return fmt.Errorf("config.timeline.min_duration_minutes must be >= 1")
	}
	for name := range c.Lanes.Catalog {
		if name == "" {
			return fmt.Errorf("config.lanes.catalog contains empty lane type")
		}
	}
	if len(c.RBAC.Roles) > 0 {
		if _, ok := c.RBAC.Roles["couple"]; !ok {
			return fmt.Errorf("config.rbac.roles must include couple")
		}
		for roleID, role := range c.RBAC.Roles {
			if roleID == "" {
				return fmt.Errorf("config.rbac.roles contains empty role id")
			}
			for _, perm := range role.Permissions {
				if perm == "" {
					return fmt.Errorf("role %s has empty permission id", roleID)
				}
			}
		}
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "vowline.yml")
}

// Default returns the built-in default Config.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config template invalid: %v", err))
	}
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
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

const defaultTemplate = `timeline:
  window_start_hour: 3
  min_duration_minutes: 1

lanes:
  catalog:
    photo:
      description: "Photography and videography"
    ceremony:
      description: "Ceremony moments"
    transport:
      description: "Guest and party transport"
    venue_ops:
      description: "Venue setup and teardown"
    music:
      description: "Band, DJ and dancing"
    meal:
      description: "Cocktails, dinner and cake"
    prep:
      description: "Hair, makeup and getting ready"
    misc:
      description: "Everything else"

rbac:
  roles:
    couple:
      description: "The couple; full control"
      permissions:
        - wedding.read
        - wedding.update
        - timeline.read
        - timeline.edit
        - budget.read
        - budget.edit
        - member.manage
    planner:
      description: "Hired planner; edits timeline and budget"
      permissions:
        - wedding.read
        - timeline.read
        - timeline.edit
        - budget.read
        - budget.edit
    vendor:
      description: "Vendors; read-only timeline"
      permissions:
        - wedding.read
        - timeline.read
`
