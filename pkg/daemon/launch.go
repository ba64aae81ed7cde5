package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "5s"-style strings in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LaunchConfig describes how to start a worker, usually loaded from
// daemon.yaml.
type LaunchConfig struct {
	Java             string            `yaml:"java" json:"java"`
	JvmArgs          []string          `yaml:"jvm_args" json:"jvm_args"`
	Jar              string            `yaml:"jar" json:"jar"`
	Args             []string          `yaml:"args" json:"args"`
	Env              map[string]string `yaml:"env" json:"env"`
	Dir              string            `yaml:"dir" json:"dir"`
	HandshakeTimeout Duration          `yaml:"handshake_timeout" json:"handshake_timeout"`
	ShutdownTimeout  Duration          `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoadLaunchConfig reads a launch configuration. Files ending in .json are
// decoded as JSON, anything else as YAML. Relative jar and dir paths are
// resolved against the file's directory.
func LoadLaunchConfig(path string) (*LaunchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read daemon config: %w", err)
	}

	var cfg LaunchConfig
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	base := filepath.Dir(path)
	if cfg.Jar != "" && !filepath.IsAbs(cfg.Jar) {
		cfg.Jar = filepath.Join(base, cfg.Jar)
	}
	if cfg.Dir != "" && !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(base, cfg.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration names something to run.
func (lc *LaunchConfig) Validate() error {
	if lc.Jar == "" {
		return errors.New("daemon config: jar is required")
	}
	return nil
}

// Command builds the worker command. The java binary defaults to "java"
// on PATH.
func (lc *LaunchConfig) Command(ctx context.Context) *exec.Cmd {
	java := lc.Java
	if java == "" {
		java = "java"
	}
	args := make([]string, 0, len(lc.JvmArgs)+len(lc.Args)+2)
	args = append(args, lc.JvmArgs...)
	args = append(args, "-jar", lc.Jar)
	args = append(args, lc.Args...)

	cmd := exec.CommandContext(ctx, java, args...)
	cmd.Dir = lc.Dir
	if len(lc.Env) > 0 {
		keys := make([]string, 0, len(lc.Env))
		for k := range lc.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		env := cmd.Environ()
		for _, k := range keys {
			env = append(env, k+"="+lc.Env[k])
		}
		cmd.Env = env
	}
	return cmd
}

// Options turns the configured timeouts into client options.
func (lc *LaunchConfig) Options() []Option {
	return []Option{
		WithHandshakeTimeout(time.Duration(lc.HandshakeTimeout)),
		WithShutdownTimeout(time.Duration(lc.ShutdownTimeout)),
	}
}
