// Package config reads chassis configuration files.
package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Read reads the attribute map in the given JSON or YAML file. Environment variables
// (`${WHEELS_D}`) are substituted before parsing. The format is chosen by extension;
// anything other than .yaml or .yml is parsed as JSON.
func Read(filePath string) (AttributeMap, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", filePath)
	}
	attrs, err := FromBytes(buf, filepath.Ext(filePath))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse config file %q", filePath)
	}
	return attrs, nil
}

// FromBytes parses an attribute map in the format named by ext.
func FromBytes(buf []byte, ext string) (AttributeMap, error) {
	var raw map[string]interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		return AttributeMap{}, nil
	}
	return AttributeMap(stringKeyed(raw).(map[string]interface{})), nil
}
