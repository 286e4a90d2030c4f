// Package secrets hydrates process environment variables from a Vault KV
// store before configuration is read. Deployments keep SHEETS_API_KEY and
// TYPESENSE_API_KEY there instead of in .env files.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes where the secret bundle lives. Zero-value Config is
// disabled and Hydrate becomes a no-op.
type Config struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Result reports how many keys Hydrate exported into the environment.
type Result struct {
	Loaded  int
	Skipped int
}

// ConfigFromEnv assembles a Config from VAULT_* environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     "secret",
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if mount := os.Getenv("VAULT_MOUNT"); mount != "" {
		cfg.Mount = mount
	}
	if raw := os.Getenv("VAULT_KV_VERSION"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.KVVersion = v
		}
	}
	if raw := os.Getenv("VAULT_TIMEOUT_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

// Hydrate fetches the secret bundle and exports each key as an environment
// variable. Keys already present are kept unless cfg.Overwrite is set.
func Hydrate(ctx context.Context, cfg Config) (Result, error) {
	if !cfg.Enabled {
		return Result{}, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return Result{}, errors.New("vault enabled but VAULT_ADDR, VAULT_TOKEN, or VAULT_PATH is missing")
	}

	data, err := fetch(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return res, err
		}
		res.Loaded++
	}
	return res, nil
}

func fetch(ctx context.Context, cfg Config) (map[string]interface{}, error) {
	url, err := secretURL(cfg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("vault response is not JSON: %w", err)
	}

	// KV v2 nests the secret one level deeper than v1.
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("vault response has no data block")
	}
	if cfg.KVVersion == 1 {
		return data, nil
	}
	inner, ok := data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("vault response has no KV v2 data block")
	}
	return inner, nil
}

func secretURL(cfg Config) (string, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")
	if mount == "" || path == "" {
		return "", errors.New("vault mount and path must be set")
	}
	if cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
