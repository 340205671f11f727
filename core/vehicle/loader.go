package vehicle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads vehicle parameters from a YAML or JSON file. The format is
// chosen by extension; anything other than .json is parsed as YAML.
func LoadFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}
	var p Params
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return Params{}, fmt.Errorf("parse vehicle %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Resolve returns parameters for ref, which is either a preset name or a path
// to a vehicle file.
func Resolve(ref string) (Params, error) {
	if p, ok := presets[ref]; ok {
		return p, nil
	}
	return LoadFile(ref)
}
