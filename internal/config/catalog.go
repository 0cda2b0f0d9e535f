package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"carkeeper/internal/reminder"
)

type catalogFile struct {
	Categories map[string]reminder.Override `yaml:"categories"`
}

// LoadCatalog builds the suggestion catalog, applying overrides from a YAML
// file when path is set:
//
//	categories:
//	  oil_change:
//	    months: 3
//	    km: 3000
//	    aliases: ["オイル換え"]
func LoadCatalog(path string) (*reminder.Catalog, error) {
	base := reminder.DefaultCatalog()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	c, err := base.WithOverrides(f.Categories)
	if err != nil {
		return nil, fmt.Errorf("apply catalog %q: %w", path, err)
	}
	return c, nil
}
