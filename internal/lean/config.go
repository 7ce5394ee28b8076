package lean

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"catchup-feed/internal/domain/entity"
)

// yamlSource mirrors one entry of config/sources.yaml.
type yamlSource struct {
	Name    string   `yaml:"name"`
	Lean    string   `yaml:"lean"`
	FeedURL string   `yaml:"feed_url"`
	Hosts   []string `yaml:"hosts"`
}

type yamlFile struct {
	Sources []yamlSource `yaml:"sources"`
}

// LoadTableFromFile reads the static source/lean/feed taxonomy from a YAML
// file in the shape of config/sources.yaml.
func LoadTableFromFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lean: read %s: %w", path, err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("lean: parse %s: %w", path, err)
	}
	infos := make([]SourceInfo, 0, len(f.Sources))
	for _, s := range f.Sources {
		l := entity.Lean(s.Lean)
		if !l.Valid() {
			return nil, fmt.Errorf("lean: source %q has invalid lean %q", s.Name, s.Lean)
		}
		infos = append(infos, SourceInfo{
			Name:           s.Name,
			Lean:           l,
			FeedURL:        s.FeedURL,
			HostSubstrings: s.Hosts,
		})
	}
	return NewTable(infos), nil
}
