// Package config assembles process configuration: built-in defaults, then an
// optional TOML file, then BLOCKFALL_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/network"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BLOCKFALL_"

// Config is the full process configuration
type Config struct {
	Game    game.Settings       `toml:"game"`
	Versus  game.VersusSettings `toml:"versus"`
	Network NetworkConfig       `toml:"network"`
	Log     LogConfig           `toml:"log"`

	// Keys overrides key bindings: key name → action name
	Keys map[string]string `toml:"keys"`
}

// NetworkConfig is the [network] section
type NetworkConfig struct {
	Address          string        `toml:"address"`
	Transport        string        `toml:"transport"` // tcp | websocket
	WebSocketPath    string        `toml:"websocket_path"`
	StatusAddress    string        `toml:"status_address"` // empty disables the status server
	ConnectTimeout   time.Duration `toml:"connect_timeout"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	WriteTimeout     time.Duration `toml:"write_timeout"`
}

// LogConfig is the [log] section
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	n := network.DefaultConfig()
	return &Config{
		Game:   game.DefaultSettings(),
		Versus: game.DefaultVersusSettings(),
		Network: NetworkConfig{
			Address:          n.Address,
			Transport:        "tcp",
			WebSocketPath:    n.WebSocketPath,
			ConnectTimeout:   n.ConnectTimeout,
			HandshakeTimeout: n.HandshakeTimeout,
			WriteTimeout:     n.WriteTimeout,
		},
		Log: LogConfig{File: "logs/blockfall.log"},
	}
}

// Load layers the file at path (skipped when empty or missing) and the
// environment over the defaults. Unknown keys in the file are an error
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides fields from the environment. Values that fail to parse
// are ignored
func applyEnv(cfg *Config) {
	envInt("LEVEL", &cfg.Game.Level)
	envInt("LEVEL_CAP", &cfg.Game.LevelCap)
	envInt("NEXT_COUNT", &cfg.Game.NextCount)
	envInt("LOCK_DELAY_MS", &cfg.Game.LockDelayMs)
	envInt("MOVE_RESET", &cfg.Game.MoveReset)
	envBool("GHOST", &cfg.Game.Ghost)
	envBool("LINE_CLEAR_ANIM", &cfg.Game.LineClearAnim)
	envBool("HOLD", &cfg.Game.HoldEnabled)
	envBool("SRS", &cfg.Game.SRS)

	envInt("VERSUS_LEVEL", &cfg.Versus.Level)

	envString("ADDRESS", &cfg.Network.Address)
	envString("TRANSPORT", &cfg.Network.Transport)
	envString("STATUS_ADDRESS", &cfg.Network.StatusAddress)
	envDuration("HANDSHAKE_TIMEOUT", &cfg.Network.HandshakeTimeout)

	envBool("DEBUG", &cfg.Log.Debug)
	envString("LOG_FILE", &cfg.Log.File)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// NetworkFor builds the transport configuration for role
func (c *Config) NetworkFor(role network.Role) (*network.Config, error) {
	transport, err := network.ParseTransport(c.Network.Transport)
	if err != nil {
		return nil, err
	}
	n := network.DefaultConfig()
	n.Role = role
	n.Transport = transport
	n.Address = c.Network.Address
	if c.Network.WebSocketPath != "" {
		n.WebSocketPath = c.Network.WebSocketPath
	}
	if c.Network.ConnectTimeout > 0 {
		n.ConnectTimeout = c.Network.ConnectTimeout
	}
	if c.Network.HandshakeTimeout > 0 {
		n.HandshakeTimeout = c.Network.HandshakeTimeout
	}
	if c.Network.WriteTimeout > 0 {
		n.WriteTimeout = c.Network.WriteTimeout
	}
	return n, nil
}
