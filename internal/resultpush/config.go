package resultpush

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"matchhub/internal/config"
)

func ConfigFromServer(cfg config.ServerConfig) (Config, error) {
	out := Config{
		Enabled:             cfg.ResultPushEnabled,
		ConfigPath:          strings.TrimSpace(cfg.ResultPushConfigPath),
		ConfigReload:        time.Duration(cfg.ResultPushReloadMS) * time.Millisecond,
		Workers:             cfg.ResultPushWorkers,
		RetryMax:            cfg.ResultPushRetryMax,
		RetryBase:           time.Duration(cfg.ResultPushRetryBaseMS) * time.Millisecond,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      5 * time.Second,
		DispatchBuffer:      1024,
	}
	if !out.Enabled {
		return out, nil
	}
	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 500 * time.Millisecond
	}
	if out.ConfigReload <= 0 {
		out.ConfigReload = 5 * time.Second
	}

	raw, err := loadTargetsRaw(out.ConfigPath, cfg.ResultPushConfigJSON)
	if err != nil {
		return Config{}, err
	}
	if raw == "" {
		return out, nil
	}
	targets, err := parseTargets(raw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

func loadTargetsRaw(path, inline string) (string, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read result push config path %q: %w", path, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(inline), nil
}

// parseTargets accepts a YAML or JSON list of targets and keeps the enabled,
// well-formed ones.
func parseTargets(raw string) ([]PushTarget, error) {
	var targets []PushTarget
	if err := yaml.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("parse result push targets: %w", err)
	}
	filtered := make([]PushTarget, 0, len(targets))
	for _, target := range targets {
		target.Platform = strings.ToLower(strings.TrimSpace(target.Platform))
		target.Endpoint = strings.TrimSpace(target.Endpoint)
		target.Scope = normalizeScope(target.Scope)
		if target.Scope == "" || target.Endpoint == "" || !target.Enabled {
			continue
		}
		for i := range target.EventAllowlist {
			target.EventAllowlist[i] = strings.TrimSpace(strings.ToLower(target.EventAllowlist[i]))
		}
		filtered = append(filtered, target)
	}
	return filtered, nil
}

// normalizeScope returns "" for scopes that can never match.
func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" || strings.EqualFold(scope, "all") {
		return "all"
	}
	kind, value, ok := strings.Cut(scope, ":")
	if !ok || !strings.EqualFold(strings.TrimSpace(kind), "player") || strings.TrimSpace(value) == "" {
		return ""
	}
	return "player:" + strings.TrimSpace(value)
}
