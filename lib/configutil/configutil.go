// Package configutil reads layered json5 configuration files.
package configutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ErrMalformed wraps a config file that exists but does not decode.
var ErrMalformed = errors.New("malformed config")

// layers returns the files that make up the config at name, lowest priority
// first: config.json5 is overridden by config.local.json5.
func layers(name string) []string {
	ext := filepath.Ext(name)
	return []string{
		name,
		strings.TrimSuffix(name, ext) + ".local" + ext,
	}
}

func decodeFile[T any](path string) (out T, found bool, err error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(strings.TrimSpace(string(contents))) == 0 {
		return out, true, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, true, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return out, true, nil
}

// ReadConfig merges every layer of the config at name. It returns
// os.ErrNotExist when none of the layers exist.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for i, path := range layers(name) {
		layer, ok, err := decodeFile[T](path)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		found = true
		if i == 0 {
			out = layer
			continue
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", path, err)
		}
		slog.Info("merging config with local overrides", "local", path)
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Load reads the config at name and overlays the environment, including a
// .env file in the same directory. A missing config file is an empty config
// so a deployment can be configured through the environment alone.
func Load[T any](name string) (T, error) {
	out, err := ReadConfig[T](name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return out, err
	}
	err = LoadEnv(&out, filepath.Join(filepath.Dir(name), ".env"))
	if err != nil {
		return out, fmt.Errorf("read environment: %w", err)
	}
	return out, nil
}

// ReadRecursively looks for name in the working directory and each of its
// parents, returning the first config found.
func ReadRecursively[T any](name string) (T, error) {
	var out T

	current, err := os.Getwd()
	if err != nil {
		return out, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return out, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return out, os.ErrNotExist
		}
		current = parent
	}
}
