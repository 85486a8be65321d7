package config

import (
	"github.com/pelletier/go-toml/v2"
)

// tomlParser adapts pelletier/go-toml/v2 to koanf's Parser interface.
// koanf's own first-party parsers cover yaml/json but not toml in this
// module's dependency set, so this thin adapter is koanf's documented
// extension point for adding one.
type tomlParser struct{}

// TOMLParser returns a koanf.Parser backed by pelletier/go-toml/v2.
func TOMLParser() tomlParser {
	return tomlParser{}
}

func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return toml.Marshal(o)
}
