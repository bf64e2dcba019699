package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Wizbisy/anonpoll/internal"
	"github.com/Wizbisy/anonpoll/ledger"
)

const (
	defaultAPIHost         = "0.0.0.0"
	defaultAPIPort         = 9090
	defaultLogLevel        = "info"
	defaultLogOutput       = "stdout"
	defaultDatadir         = ".anonpoll" // Will be prefixed with user's home directory
	defaultRevealProfile   = string(ledger.RevealProfileFinalizer)
	defaultMonitorInterval = time.Minute
)

// Version is the build version, set at build time with -ldflags
var Version = internal.Version

// Config holds the application configuration
type Config struct {
	API       APIConfig
	Log       LogConfig
	Reveal    RevealConfig
	Owner     string
	Datadir   string
	MaxWeight uint64 `mapstructure:"maxweight"`
}

// APIConfig holds the API-specific configuration
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// RevealConfig holds reveal protocol configuration
type RevealConfig struct {
	Profile         string        `mapstructure:"profile"`
	MonitorInterval time.Duration `mapstructure:"monitor"`
}

// loadConfig loads configuration from flags, environment variables, and defaults
func loadConfig() (*Config, error) {
	v := viper.New()

	// Get user's home directory for default datadir
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("api.host", defaultAPIHost)
	v.SetDefault("api.port", defaultAPIPort)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("reveal.profile", defaultRevealProfile)
	v.SetDefault("reveal.monitor", defaultMonitorInterval)
	v.SetDefault("datadir", defaultDatadirPath)
	v.SetDefault("maxweight", uint64(ledger.DefaultMaxVoteWeight))

	// Configure flags
	flag.StringP("api.host", "a", defaultAPIHost, "API host")
	flag.IntP("api.port", "p", defaultAPIPort, "API port")
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.StringP("reveal.profile", "r", defaultRevealProfile, "reveal profile (finalizer or submission)")
	flag.Duration("reveal.monitor", defaultMonitorInterval, "interval between pending reveal sweeps (0 disables)")
	flag.StringP("owner", "w", "", "node owner address, set on first start")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for database files")
	flag.Uint64("maxweight", ledger.DefaultMaxVoteWeight, "per-vote weight bound used for the decryption search")

	// Configure usage information
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "anonpoll-node v%s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: anonpoll-node [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dashes (-) and dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, ANONPOLL_API_HOST or ANONPOLL_REVEAL_PROFILE\n")
	}

	// Parse flags
	flag.CommandLine.SortFlags = false
	flag.Parse()

	// Configure Viper to use environment variables
	v.SetEnvPrefix("ANONPOLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind flags to Viper
	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if !ledger.RevealProfile(cfg.Reveal.Profile).Valid() {
		return fmt.Errorf("invalid reveal profile %q (use %s or %s)",
			cfg.Reveal.Profile, ledger.RevealProfileFinalizer, ledger.RevealProfileSubmission)
	}
	if cfg.Owner != "" && !common.IsHexAddress(cfg.Owner) {
		return fmt.Errorf("invalid owner address %q", cfg.Owner)
	}
	if cfg.MaxWeight == 0 {
		return fmt.Errorf("maxweight must be greater than zero")
	}
	return nil
}
