package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed holds option values applied at bootstrap for options that are unset.
//
//	options:
//	  jp_analytics_settings_ga_tracking_id: UA-12345678-1
//	  jp_analytics_settings_anonymize_ip: true
//	  jp_analytics_settings_personas: [Default, Champion, Skeptic]
type Seed struct {
	Options map[string]any `yaml:"options"`
}

// LoadSeed reads a seed file and flattens it into raw option strings: lists
// are newline-joined and booleans become "1" or "".
func LoadSeed(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	values := make(map[string]string, len(seed.Options))
	for name, raw := range seed.Options {
		value, err := flattenSeedValue(raw)
		if err != nil {
			return nil, fmt.Errorf("seed option %s: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

func flattenSeedValue(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		if v {
			return "1", nil
		}
		return "", nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			line, err := flattenSeedValue(item)
			if err != nil {
				return "", err
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", raw)
	}
}
