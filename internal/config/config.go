package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"-" env:"PTR_PROJECT_PATH"`
	TestPath    string `yaml:"test_path" env:"PTR_TEST_PATH"`
	PHPUnitPath string `yaml:"phpunit" env:"PTR_PHPUNIT"`

	// Recording settings
	RecordDir  string `yaml:"record_dir" env:"PTR_RECORD_DIR"`
	AutoResume bool   `yaml:"auto_resume" env:"PTR_AUTO_RESUME"`

	// Execution settings
	Processors int `yaml:"processors" env:"PTR_PROCESSORS"`

	// Paths to ignore when scanning
	PathsToIgnore []string `yaml:"ignore" env:"PTR_IGNORE" envSeparator:","`

	LogLevel string `yaml:"log_level" env:"PTR_LOG_LEVEL"`

	Database Database `yaml:"database"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Database holds the connection used to prepare per-worker databases
type Database struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     string `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"username" env:"DB_USERNAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Prefix   string `yaml:"prefix" env:"DB_DATABASE_PREFIX"`
}

// Flags holds command-line flags
type Flags struct {
	Processors   int
	TestPath     string
	NameFilter   string
	RecordDir    string
	ReplayFile   string
	Resume       bool
	NoAutoResume bool
	FailFast     bool
	PrepareDB    bool
	Migrate      bool
	NoFresh      bool
	Plain        bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath: DefaultProjectPath,
		TestPath:    DefaultTestPath,
		RecordDir:   DefaultRecordDir,
		AutoResume:  true,
		Processors:  DefaultProcessors,
		LogLevel:    DefaultLogLevel,
		Database: Database{
			Host:   "127.0.0.1",
			Port:   "3306",
			User:   "root",
			Prefix: DefaultDatabasePrefix,
		},
		Flags: Flags{Processors: DefaultProcessors},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the configuration from defaults, the project's .env file, the
// optional .ptr.yaml and the environment, in increasing precedence.
func Load() (*Config, error) {
	cfg := New()

	if p := os.Getenv("PTR_PROJECT_PATH"); p != "" {
		cfg.ProjectPath = p
	}

	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(filepath.Join(cfg.ProjectPath, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.LoadFile(filepath.Join(cfg.ProjectPath, DefaultConfigFile)); err != nil {
		return nil, err
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyFlags copies parsed command-line flags over the loaded settings
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags

	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.RecordDir != "" {
		c.RecordDir = flags.RecordDir
	}
	if flags.NoAutoResume {
		c.AutoResume = false
	}
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		// If TestPath is provided, make it relative to PROJECT_PATH if it's not absolute
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}

	// Default: combine project path and test path
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetRecordDir returns the absolute ledger directory, or "" when recording is
// disabled. Relative directories are resolved against the working directory
// at the time of the call.
func (c *Config) GetRecordDir() string {
	if c.RecordDir == "" {
		return ""
	}
	if abs, err := filepath.Abs(c.RecordDir); err == nil {
		return abs
	}
	return c.RecordDir
}

// GetReplayFile returns the absolute path of the ledger to replay, or ""
func (c *Config) GetReplayFile() string {
	if c.Flags.ReplayFile == "" {
		return ""
	}
	if abs, err := filepath.Abs(c.Flags.ReplayFile); err == nil {
		return abs
	}
	return c.Flags.ReplayFile
}

// GetSessionPath returns the session marker path for the record directory,
// or "" when recording is disabled. The marker sits next to the directory, as
// .<dir name>.ptr-session.json, so the directory itself holds only ledgers.
func (c *Config) GetSessionPath() string {
	dir := c.GetRecordDir()
	if dir == "" {
		return ""
	}
	name := "." + strings.TrimPrefix(filepath.Base(dir), ".") + DefaultSessionFile
	return filepath.Join(filepath.Dir(dir), name)
}

// GetPHPUnitPath returns the path to PHPUnit binary
func (c *Config) GetPHPUnitPath() string {
	if c.PHPUnitPath != "" {
		return c.PHPUnitPath
	}
	return filepath.Join(c.ProjectPath, "vendor", "bin", "phpunit")
}

// GetDatabaseName returns the database name for a worker
func (c *Config) GetDatabaseName(workerID int) string {
	prefix := c.Database.Prefix
	if prefix == "" {
		prefix = DefaultDatabasePrefix
	}
	return fmt.Sprintf("%s_%d", prefix, workerID)
}
