// internal/config/sources.go
//
// Raw value layers.
//
// Context
// -------
// `loadSources` merges the raw layers into one Koanf tree, lowest
// precedence first:
//
//  1. Optional YAML file (keys are variable names, values may be native
//     scalars or sequences).
//  2. Optional `.env` file, parsed with godotenv.Read so the process
//     environment is never written.
//  3. The process environment (or an injected map in tests).
//
// Compiled-in defaults are applied later, per field, by the resolver.  Keys
// keep their exact case.

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// mapProvider feeds an already-parsed map into Koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) { return m, nil }

func loadSources(o options) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if o.yamlFile != "" {
		if err := k.Load(file.Provider(o.yamlFile), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", o.yamlFile, "err", err)
			return nil, fmt.Errorf("config: load %s: %w", o.yamlFile, err)
		}
		zap.S().Debugw("config yaml loaded", "file", o.yamlFile)
	}

	if o.envFile != "" {
		vals, err := readEnvFile(o.envFile)
		if err != nil {
			return nil, err
		}
		if err := k.Load(toProvider(vals), nil); err != nil {
			return nil, fmt.Errorf("config: merge %s: %w", o.envFile, err)
		}
	}

	if o.environ != nil {
		if err := k.Load(toProvider(o.environ), nil); err != nil {
			return nil, fmt.Errorf("config: merge environment: %w", err)
		}
		return k, nil
	}

	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config: merge environment: %w", err)
	}
	return k, nil
}

func toProvider(vals map[string]string) mapProvider {
	m := make(mapProvider, len(vals))
	for key, val := range vals {
		m[key] = val
	}
	return m
}

// readEnvFile parses path as KEY=VALUE lines.  A missing file is not an
// error.  When godotenv rejects the file as a whole, it is re-read line by
// line and unparsable lines are skipped.
func readEnvFile(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err == nil {
		zap.S().Debugw("config .env loaded", "file", path, "keys", len(vals))
		return vals, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		zap.S().Debugw("config .env not found", "file", path)
		return map[string]string{}, nil
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, rerr)
	}
	zap.S().Warnw("config .env parse failed, skipping bad lines", "file", path, "err", err)

	vals = make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line, lerr := godotenv.Unmarshal(sc.Text())
		if lerr != nil {
			continue
		}
		for key, val := range line {
			vals[key] = val
		}
	}
	return vals, nil
}
