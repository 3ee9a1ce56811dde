package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	CommandPrint = "print"
	CommandServe = "serve"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type printCommand struct {
	NoCache bool `long:"no-cache" env:"NO_CACHE" description:"Render directly without reading or writing the cache"`
}

type serveCommand struct{}

type rawCfg struct {
	// Upstream configuration
	CreatorID string `long:"creator-id" env:"CREATOR_ID" description:"Patreon creator id to render"`
	APIURL    string `long:"api-url" env:"PATREON_API_URL" default:"https://api.patreon.com/stream?json-api-version=1.0" description:"Patreon stream endpoint"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Patreon RSS/1.0" description:"User agent string for HTTP requests"`
	Timeout   int    `long:"timeout" env:"TIMEOUT" default:"0" description:"Upstream request timeout in seconds (0 disables it)"`

	// Cache configuration
	CacheDir string `long:"cache-dir" env:"CACHE_DIR" default:"./cache" description:"Directory for cached feed documents"`
	MaxAge   int    `long:"max-age" env:"MAX_AGE" default:"3600" description:"Cache max age in seconds"`

	// Server configuration
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Print printCommand `command:"print" description:"Write a creator's feed to stdout"`
	Serve serveCommand `command:"serve" description:"Serve feeds over HTTP"`
}

// Load reads .env files, environment variables and command-line flags.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.SubcommandsOptional = true

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	command := CommandPrint
	if parser.Active != nil {
		command = parser.Active.Name
	}

	cfg := &Cfg{
		CreatorID: raw.CreatorID,
		APIURL:    raw.APIURL,
		UserAgent: raw.UserAgent,
		Timeout:   raw.Timeout,
		CacheDir:  raw.CacheDir,
		MaxAge:    raw.MaxAge,
		FeedsDir:  raw.FeedsDir,
		Port:      raw.Port,
		Command:   command,
		NoCache:   raw.Print.NoCache,
		Timezone:  raw.Timezone,
		Debug:     raw.Debug,
		Version:   GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	if c.MaxAge < 0 {
		return fmt.Errorf("max age must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Command == CommandPrint && c.CreatorID == "" {
		return fmt.Errorf("creator id is required for the %s command", CommandPrint)
	}
	return nil
}

func (c *Cfg) MaxAgeDuration() time.Duration {
	return time.Duration(c.MaxAge) * time.Second
}

func (c *Cfg) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
