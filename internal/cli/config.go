package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirrorfs/statecache/internal/handlekey"
	"github.com/mirrorfs/statecache/internal/statecache"
)

// Config describes a cache target. Values from the config file are
// overridden by the corresponding flags when those are set.
type Config struct {
	BaseDir   string `yaml:"base_dir"`
	Account   string `yaml:"account"`
	MasterKey string `yaml:"master_key"` // hex-encoded
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ResolveConfig merges the config file (if any) with the global flags.
// Flags win over file values; the account name is mandatory.
func ResolveConfig(opts *RootOptions) (Config, error) {
	var cfg Config

	if opts.ConfigPath != "" {
		loaded, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if opts.BaseDir != "" {
		cfg.BaseDir = opts.BaseDir
	}
	if opts.Account != "" {
		cfg.Account = opts.Account
	}
	if opts.MasterKey != "" {
		cfg.MasterKey = opts.MasterKey
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.Account == "" {
		return cfg, fmt.Errorf("no account name: set --account or the config file's account field")
	}
	return cfg, nil
}

// openStore resolves the target config and opens its state cache.
// Errors are already wrapped with CLI exit codes.
func openStore(opts *RootOptions) (*statecache.Store, error) {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve cache target", err)
	}

	var cipher handlekey.Cipher
	if cfg.MasterKey != "" {
		key, err := hex.DecodeString(cfg.MasterKey)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid master key", err)
		}
		cipher, err = handlekey.NewPaddedCBC(key)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid master key", err)
		}
	}

	st, err := statecache.Open(cfg.BaseDir, cfg.Account, cipher)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open state cache", err)
	}
	return st, nil
}
