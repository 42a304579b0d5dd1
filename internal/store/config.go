package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

type GlobalConfig struct {
	CurrentWorkspace string `yaml:"currentWorkspace,omitempty"`

	// LogLevel is a zap level name ("debug", "info", ...).
	LogLevel string `yaml:"logLevel,omitempty"`
	// LogFile receives logs while the TUI owns the terminal.
	LogFile string `yaml:"logFile,omitempty"`

	Engine     EngineConfig     `yaml:"engine,omitempty"`
	Classifier ClassifierConfig `yaml:"classifier,omitempty"`
	Share      ShareConfig      `yaml:"share,omitempty"`
	TUI        TUIConfig        `yaml:"tui,omitempty"`
}

// EngineConfig overrides drag tuning. Zero fields keep the built-in values.
type EngineConfig struct {
	HoldMouse         time.Duration `yaml:"holdMouse,omitempty"`
	HoldTouch         time.Duration `yaml:"holdTouch,omitempty"`
	CancelDistance    float64       `yaml:"cancelDistance,omitempty"`
	EdgeBand          float64       `yaml:"edgeBand,omitempty"`
	MaxScrollPerFrame float64       `yaml:"maxScrollPerFrame,omitempty"`
	FrameInterval     time.Duration `yaml:"frameInterval,omitempty"`
	SwapDebounce      time.Duration `yaml:"swapDebounce,omitempty"`
}

type ClassifierConfig struct {
	// Keywords maps a category to extra words that route items into it.
	Keywords map[string][]string `yaml:"keywords,omitempty"`
}

type ShareConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// RedisURL switches the share registry from SQLite to Redis.
	RedisURL string        `yaml:"redisURL,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

type TUIConfig struct {
	// ColorProfile forces a termenv profile: "ascii", "ansi", "ansi256" or "truecolor".
	ColorProfile string `yaml:"colorProfile,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.packlist).
	if v := strings.TrimSpace(os.Getenv("PACKLIST_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".packlist"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return flock.New(path + ".lock"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	lock, err := configLock(path)
	if err != nil {
		return nil, err
	}
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	return loadConfigUnlocked(path)
}

func SaveConfig(cfg *GlobalConfig) error {
	return UpdateConfig(func(cur *GlobalConfig) error {
		*cur = *cfg
		return nil
	})
}

// UpdateConfig applies fn under an exclusive lock so concurrent processes do
// not lose each other's writes.
func UpdateConfig(fn func(*GlobalConfig) error) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	lock, err := configLock(path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	cfg, err := loadConfigUnlocked(path)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := atomicWriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func loadConfigUnlocked(path string) (*GlobalConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
