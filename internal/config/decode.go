package config

import (
	"fmt"
	"reflect"

	mapstructure "github.com/go-viper/mapstructure/v2"
)

var (
	backendType = reflect.TypeOf(Backend{})
	forwardType = reflect.TypeOf(Forward{})
)

// decodeHooks returns the mapstructure decode hooks that let the TOML
// source use shorthand for Forward and Backend instead of always spelling
// out the full table form:
//
//	forward = "127.0.0.1:8080"
//	forward = ["a:1", "b:2"]
//	forward = { algorithm = "WRR", backends = ["a:1", { address = "b:2", weight = 3 }] }
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		backendDecodeHook,
		forwardDecodeHook,
	)
}

func backendDecodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != backendType {
		return data, nil
	}
	if from.Kind() != reflect.String {
		return data, nil
	}
	addr, _ := data.(string)
	return Backend{Address: addr, Weight: 1}, nil
}

func forwardDecodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != forwardType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		addr, _ := data.(string)
		return Forward{Backends: []Backend{{Address: addr, Weight: 1}}}, nil
	case reflect.Slice:
		items, ok := data.([]interface{})
		if !ok {
			return data, nil
		}
		backends := make([]Backend, 0, len(items))
		for _, item := range items {
			b, err := toBackend(item)
			if err != nil {
				return nil, err
			}
			backends = append(backends, b)
		}
		return Forward{Backends: backends}, nil
	default:
		return data, nil
	}
}

func toBackend(v interface{}) (Backend, error) {
	switch t := v.(type) {
	case string:
		return Backend{Address: t, Weight: 1}, nil
	case map[string]interface{}:
		b := Backend{Weight: 1}
		if addr, ok := t["address"].(string); ok {
			b.Address = addr
		}
		if w, ok := t["weight"]; ok {
			switch wv := w.(type) {
			case int:
				b.Weight = wv
			case int64:
				b.Weight = int(wv)
			case float64:
				b.Weight = int(wv)
			}
		}
		return b, nil
	default:
		return Backend{}, fmt.Errorf("config: unsupported backend value %v", v)
	}
}
