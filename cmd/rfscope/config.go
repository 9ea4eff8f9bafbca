package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const defaultConfigName = "rfscope.hcl"

// Config is the project configuration file.
//
//	variables = {
//	  ENV  = "staging"
//	  HOST = "localhost"
//	}
//	log_level = "debug"
//	spec_dirs = ["libspecs"]
type Config struct {
	Variables map[string]string `hcl:"variables,optional"`
	LogLevel  string            `hcl:"log_level,optional"`
	LogFormat string            `hcl:"log_format,optional"`
	SpecDirs  []string          `hcl:"spec_dirs,optional"`

	// dir is the directory holding the file; relative paths are resolved
	// against it.
	dir string
}

// loadConfig parses the HCL config file at path.
func loadConfig(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, diags)
	}

	var c Config
	if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, diags)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %q: %w", path, err)
	}
	c.dir = filepath.Dir(abs)
	return &c, nil
}

// loadProjectConfig loads the --config file, or rfscope.hcl at the repo root
// of the working directory. A missing default file yields an empty config.
func loadProjectConfig() (*Config, error) {
	if flagConfig != "" {
		return loadConfig(flagConfig)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	root := findRepoRoot(cwd)
	path := filepath.Join(root, defaultConfigName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &Config{dir: root}, nil
	}
	return loadConfig(path)
}

// resolve makes p absolute relative to the config file's directory.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
