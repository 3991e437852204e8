package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "git-suggester"

// Config holds every setting the CLI reads from YAML.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	Branch  BranchConfig  `yaml:"branch"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitHubConfig addresses the repository that receives the new branch.
// WorkerOwner/WorkerRepo are usually a fork of the upstream repository.
type GitHubConfig struct {
	Host        string `yaml:"host"`
	WorkerOwner string `yaml:"worker_owner"`
	WorkerRepo  string `yaml:"worker_repo"`
}

type BranchConfig struct {
	Name         string `yaml:"name"`
	BaseBranch   string `yaml:"base_branch"`
	Strategy     string `yaml:"strategy"`
	RaceAttempts int    `yaml:"race_attempts"`
}

// RetryConfig bounds retries of remote calls. Jitter is on unless NoJitter
// is set, since a merged false can not override a default true.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	NoJitter    bool          `yaml:"no_jitter"`
}

type LoggingConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the built-in defaults every file is merged over.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			Host: "github.com",
		},
		Branch: BranchConfig{
			Name:         "code-suggestion",
			BaseBranch:   "master",
			Strategy:     "substring",
			RaceAttempts: 3,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
	}
}

// LoadEffectiveConfig loads the configuration using the priority:
// defaults -> custom path (or global path) -> repo-specific path.
// The repo-specific file is only consulted when owner and repo are known.
func LoadEffectiveConfig(customPath, owner, repo string) (Config, error) {
	cfg := DefaultConfig()

	primary := customPath
	if primary == "" {
		primary = GlobalConfigPath()
	}
	if err := loadInto(&cfg, primary); err != nil {
		return Config{}, err
	}

	if owner != "" && repo != "" {
		if err := loadInto(&cfg, RepoConfigPath(owner, repo)); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// loadInto merges the YAML file at path into cfg. A missing file is not an error.
func loadInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	mergeInto(cfg, &fileCfg)
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GlobalConfigPath returns the global config path using XDG base directories.
// Example on Linux: ~/.config/git-suggester/config.yaml
func GlobalConfigPath() string {
	path, err := xdg.ConfigFile(filepath.Join(appName, "config.yaml"))
	if err != nil {
		return "config.yaml"
	}
	return path
}

// RepoConfigPath returns the repo-specific config path using XDG base directories.
func RepoConfigPath(owner, repo string) string {
	rel := filepath.Join(appName, "repositories", owner+"_"+repo+".yaml")
	path, err := xdg.ConfigFile(rel)
	if err != nil {
		return filepath.Join("repositories", owner+"_"+repo+".yaml")
	}
	return path
}

// mergeInto merges non-zero values from src into dst.
func mergeInto(dst, src *Config) {
	if dst == nil || src == nil {
		return
	}
	mergeStruct(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

// mergeStruct copies non-zero fields from src into dst. It recurses into nested structs.
// For booleans, only true overrides.
func mergeStruct(dst, src reflect.Value) {
	if dst.Kind() != reflect.Struct || src.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < dst.NumField(); i++ {
		dstField := dst.Field(i)
		srcField := src.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Struct:
			mergeStruct(dstField, srcField)
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}
}
