package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the seed config file.
// Reference data that's easier to manage in YAML than env vars.
type YAMLConfig struct {
	Profiles   []ProfileConfig  `yaml:"profiles"`
	Categories []string         `yaml:"categories"`
	Admin      *AdminSeedConfig `yaml:"admin,omitempty"`
}

// ProfileConfig defines a user profile in the YAML config.
type ProfileConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// AdminSeedConfig defines the initial administrator account.
type AdminSeedConfig struct {
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Profile     string `yaml:"profile"`      // Profile name, must be listed under profiles
	PasswordEnv string `yaml:"password_env"` // Env var holding the initial password
}

// Password returns the initial admin password from the environment.
func (a *AdminSeedConfig) Password() string {
	if a == nil {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	return ParseYAMLConfig(data)
}

// ParseYAMLConfig decodes a seed config and applies defaults.
func ParseYAMLConfig(data []byte) (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Admin != nil {
		if cfg.Admin.PasswordEnv == "" {
			cfg.Admin.PasswordEnv = "ADMIN_PASSWORD"
		}
		if cfg.Admin.Name == "" {
			cfg.Admin.Name = "Administrator"
		}
		if cfg.Admin.Profile == "" && len(cfg.Profiles) > 0 {
			cfg.Admin.Profile = cfg.Profiles[0].Name
		}
	}

	return &cfg, nil
}

// GetProfileByName finds a profile by its name.
func (c *YAMLConfig) GetProfileByName(name string) *ProfileConfig {
	if c == nil {
		return nil
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}
