package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ukydev/garage-ops/internal/analytics"
)

// PolicyEnvPrefix prefixes environment overrides, e.g.
// GARAGE_POLICY__MOTORCYCLE__SERVICE_INTERVAL_KM=6000.
const PolicyEnvPrefix = "GARAGE_POLICY__"

// LoadPolicy starts from the default policy, overlays the optional file at
// path (YAML or JSON) and then GARAGE_POLICY__ environment variables.
func LoadPolicy(path string) (analytics.Policy, error) {
	policy := analytics.DefaultPolicy()
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return policy, fmt.Errorf("unsupported policy format: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return policy, fmt.Errorf("load policy %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(PolicyEnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, PolicyEnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return policy, fmt.Errorf("load policy env: %w", err)
	}

	if err := k.UnmarshalWithConf("", &policy, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return policy, fmt.Errorf("decode policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid policy: %w", err)
	}
	return policy, nil
}
