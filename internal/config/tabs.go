package config

import (
	"fmt"
	"os"

	"github.com/aretw0/relview"
	"gopkg.in/yaml.v3"
)

// TabsDecl declares the tabs of one view.
type TabsDecl struct {
	Key     string            `yaml:"key"`
	Default string            `yaml:"default"`
	Tabs    map[string]string `yaml:"tabs"`
}

// Selector builds the tab selector of the declaration.
func (d TabsDecl) Selector() *relview.TabSelector {
	return &relview.TabSelector{Key: d.Key, Map: d.Tabs, Default: d.Default}
}

// LoadTabs reads tab declarations keyed by view name:
//
//	profile:
//	  default: overview
//	  tabs:
//	    overview: summary,orders
//	    history: all,-summary
func LoadTabs(path string) (map[string]TabsDecl, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tabs file: %w", err)
	}

	var decls map[string]TabsDecl
	if err := yaml.Unmarshal(raw, &decls); err != nil {
		return nil, fmt.Errorf("failed to parse tabs file %s: %w", path, err)
	}
	for view, d := range decls {
		if d.Default != "" {
			if _, ok := d.Tabs[d.Default]; !ok {
				return nil, fmt.Errorf("view %s: default tab %q is not declared", view, d.Default)
			}
		}
	}
	return decls, nil
}
