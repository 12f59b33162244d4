package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a convenience wrapper for pseudo-JSON attributes.
type AttributeMap map[string]interface{}

// TransformAttributeMapToStruct uses an attribute map to transform attributes to the prescribed format.
// Field names come from `json` tags, values are converted weakly (a substituted "56" fills a
// float64) and unknown keys are rejected.
func TransformAttributeMapToStruct(to interface{}, attributes AttributeMap) (interface{}, error) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           to,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return nil, errors.Wrap(err, "error decoding attributes")
	}
	return to, nil
}

// stringKeyed converts the map[interface{}]interface{} values YAML produces into string keyed maps.
func stringKeyed(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[fmt.Sprint(k)] = stringKeyed(val)
		}
		return out
	case map[string]interface{}:
		for k, val := range typed {
			typed[k] = stringKeyed(val)
		}
		return typed
	case []interface{}:
		for i, val := range typed {
			typed[i] = stringKeyed(val)
		}
		return typed
	default:
		return v
	}
}
