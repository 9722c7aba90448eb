package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultDatabaseName = "release_notes.db"

	// EnvPrefix prefixes every environment variable, e.g. RELNOTES_DIR
	EnvPrefix = "RELNOTES"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by Load when --version was passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the release-note server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Archive configuration
	ArchiveDirectory string
	DatabasePath     string
	VocabularyFile   string // empty means the built-in vocabulary
	ConfigFile       string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		ArchiveDirectory: currentDir,
		DatabasePath:     filepath.Join(currentDir, DefaultDatabaseName),
		Version:          "1.0.0",
		ServerName:       "mcp-release-notes",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process arguments and returns a configuration
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load builds a configuration from defaults, an optional config file,
// RELNOTES_* environment variables and the given arguments, in increasing
// order of precedence
func Load(program string, args []string, usageOut io.Writer) (*Config, error) {
	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	cfg := DefaultConfig()
	v := viper.New()
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.SetOutput(usageOut)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags, program, usageOut)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)

	if cfg.ArchiveDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.ArchiveDirectory); err == nil {
			cfg.ArchiveDirectory = expandedPath
		}
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.ArchiveDirectory, DefaultDatabaseName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.ArchiveDirectory)
	v.SetDefault("db", "")
	v.SetDefault("vocab", "")
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("config", "")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the HTTP API")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.ArchiveDirectory, "Archive directory containing release-note PDFs")
	flags.String("db", "", "SQLite database path (default: <dir>/"+DefaultDatabaseName+")")
	flags.String("vocab", "", "YAML vocabulary file overriding the built-in keywords")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	flags.String("config", "", "Configuration file (yaml, json or toml)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	for _, name := range []string{"mode", "host", "port", "dir", "db", "vocab", "loglevel", "maxfilesize", "config"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, program string, out io.Writer) {
	flags.Usage = func() {
		fmt.Fprintf(out, "Usage of %s:\n", program)
		fmt.Fprintf(out, "\nMCP Release Notes - parse, archive and search product release-note PDFs\n\n")
		fmt.Fprintf(out, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s --dir=/srv/release-notes                  # MCP over stdio (default)\n", program)
		fmt.Fprintf(out, "  %s --mode=server --dir=/srv/release-notes    # HTTP API\n", program)
		fmt.Fprintf(out, "  %s --vocab=vocabulary.yaml                   # custom keywords\n", program)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_MODE %s_HOST %s_PORT %s_DIR %s_DB\n", EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(out, "  %s_VOCAB %s_LOGLEVEL %s_MAXFILESIZE %s_CONFIG\n", EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = strings.ToLower(v.GetString("mode"))
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.ArchiveDirectory = v.GetString("dir")
	cfg.DatabasePath = v.GetString("db")
	cfg.VocabularyFile = v.GetString("vocab")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.ConfigFile = v.GetString("config")
}

// Validate checks if the configuration is valid. A missing archive
// directory is created.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port range only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.ArchiveDirectory == "" {
		return errors.New("archive directory cannot be empty")
	}

	if _, err := os.Stat(c.ArchiveDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.ArchiveDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create archive directory %s: %w", c.ArchiveDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access archive directory %s: %w", c.ArchiveDirectory, err)
	}

	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); err != nil {
			return fmt.Errorf("cannot access vocabulary file %s: %w", c.VocabularyFile, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	vocab := c.VocabularyFile
	if vocab == "" {
		vocab = "built-in"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, ArchiveDirectory: %s, DatabasePath: %s, "+
		"Vocabulary: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.ArchiveDirectory, c.DatabasePath, vocab, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
