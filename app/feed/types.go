package feed

import (
	"errors"
	"fmt"
	"strings"
)

// Named feed definition loaded from <feeds-dir>/<name>.yml

const (
	defaultMaxAge  = 3600
	defaultTimeout = 30
)

type Config struct {
	Name      string         // Derived from filename (without .yml extension)
	CreatorID string         `yaml:"creator_id"`
	Settings  ConfigSettings `yaml:"settings"`
	Filters   []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	MaxAge   int  `yaml:"max_age"`   // seconds
	MaxItems int  `yaml:"max_items"` // 0 keeps every post
	Timeout  int  `yaml:"timeout"`   // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func (s *ConfigSettings) applyDefaults() {
	if s.MaxAge == 0 {
		s.MaxAge = defaultMaxAge
	}
	if s.Timeout == 0 {
		s.Timeout = defaultTimeout
	}
}

// validate reports every problem with the definition at once.
func (c *Config) validate() error {
	var errs []error

	switch {
	case c.CreatorID == "":
		errs = append(errs, errors.New("creator_id is required"))
	case strings.ContainsAny(c.CreatorID, `/\`):
		errs = append(errs, fmt.Errorf("creator_id %q must not contain path separators", c.CreatorID))
	}

	if c.Settings.MaxAge < 0 || c.Settings.MaxItems < 0 || c.Settings.Timeout < 0 {
		errs = append(errs, errors.New("settings must not be negative"))
	}

	for i, filter := range c.Filters {
		if !filterFields[filter.Field] {
			errs = append(errs, fmt.Errorf("filters[%d]: unknown post field %q", i, filter.Field))
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			errs = append(errs, fmt.Errorf("filters[%d]: needs includes or excludes", i))
		}
	}

	return errors.Join(errs...)
}
