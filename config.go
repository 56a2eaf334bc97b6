package plainshell

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	defaults "github.com/Kia-Karami/plainshell/default"
)

// Config represents the user's plainshell configuration.
type Config struct {
	Version int           `toml:"version"`
	Shell   ShellConfig   `toml:"shell"`
	Output  OutputConfig  `toml:"output"`
	Session SessionConfig `toml:"session"`
}

// ShellConfig holds settings for spawning the child shell.
type ShellConfig struct {
	// Program is the shell executable. It must accept commands on stdin
	// when started non-interactively.
	Program string `toml:"program"`
	// Args are startup flags. The defaults disable rc-file loading so
	// output parsing does not depend on user prompt customization.
	Args []string `toml:"args"`
	// InitCommand is sent once after a successful start; it clears the
	// screen and pins a minimal prompt.
	InitCommand string `toml:"init_command"`
	// Locale is assigned to LC_ALL so byte-to-text decoding is deterministic.
	Locale string `toml:"locale"`
}

// OutputConfig holds settings for transcript rendering.
type OutputConfig struct {
	// Marker prefixes every line of sanitized output in the transcript.
	Marker string `toml:"marker"`
	// SubscriberBuffer is the per-subscriber channel capacity.
	SubscriberBuffer int `toml:"subscriber_buffer"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// IdleTTLMinutes is how long an unused session survives in the
	// session manager before it is stopped automatically.
	IdleTTLMinutes int `toml:"idle_ttl_minutes"`
}

// ConfigDir returns the config directory path.
// Resolution order: $PLAINSHELL_CONFIG_DIR > $XDG_CONFIG_HOME/plainshell > ~/.config/plainshell
func ConfigDir() string {
	if dir := os.Getenv("PLAINSHELL_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "plainshell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "plainshell-config")
	}
	return filepath.Join(home, ".config", "plainshell")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("plainshell: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
// Fields missing from the file fall back to their defaults.
func LoadConfig() (*Config, error) {
	return loadConfigFrom(ConfigPath())
}

func loadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	def := DefaultConfig()
	if cfg.Shell.Program == "" {
		cfg.Shell.Program = def.Shell.Program
	}
	if cfg.Shell.Args == nil {
		cfg.Shell.Args = def.Shell.Args
	}
	if cfg.Shell.InitCommand == "" {
		cfg.Shell.InitCommand = def.Shell.InitCommand
	}
	if cfg.Shell.Locale == "" {
		cfg.Shell.Locale = def.Shell.Locale
	}
	if cfg.Output.Marker == "" {
		cfg.Output.Marker = def.Output.Marker
	}
	if cfg.Output.SubscriberBuffer == 0 {
		cfg.Output.SubscriberBuffer = def.Output.SubscriberBuffer
	}
	if cfg.Session.IdleTTLMinutes == 0 {
		cfg.Session.IdleTTLMinutes = def.Session.IdleTTLMinutes
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	program := ResolveShellProgram(cfg)
	if filepath.IsAbs(program) {
		if _, err := os.Stat(program); err != nil {
			warnings = append(warnings, "shell program not found: "+program)
		}
	}
	if cfg.Shell.InitCommand == "" {
		warnings = append(warnings, "init_command is empty; the shell's own prompt formatting will leak into output")
	}
	return warnings
}

// ResolveShellProgram returns the shell executable path.
// Priority: $PLAINSHELL_SHELL env > config value.
func ResolveShellProgram(cfg *Config) string {
	if program := os.Getenv("PLAINSHELL_SHELL"); program != "" {
		return program
	}
	if cfg != nil {
		return cfg.Shell.Program
	}
	return ""
}

// ResolveMarker returns the transcript output marker.
// Priority: $PLAINSHELL_MARKER env > config value.
func ResolveMarker(cfg *Config) string {
	if marker := os.Getenv("PLAINSHELL_MARKER"); marker != "" {
		return marker
	}
	if cfg != nil {
		return cfg.Output.Marker
	}
	return ""
}
