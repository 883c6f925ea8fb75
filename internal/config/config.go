package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrMissingRoom = errors.New("server.room is required")
	ErrMissingName = errors.New("server.name is required")
)

type Config struct {
	Mode     string       `mapstructure:"mode"`
	LogLevel string       `mapstructure:"log_level"`
	Server   ServerConfig `mapstructure:"server"`
	ICE      ICEConfig    `mapstructure:"ice"`
	Media    MediaConfig  `mapstructure:"media"`
	HTTP     HTTPConfig   `mapstructure:"http"`
	Chat     ChatConfig   `mapstructure:"chat"`
}

type ServerConfig struct {
	URL         string        `mapstructure:"url"`
	Room        string        `mapstructure:"room"`
	Name        string        `mapstructure:"name"`
	JoinTimeout time.Duration `mapstructure:"join_timeout"`
	Heartbeat   time.Duration `mapstructure:"heartbeat"`
	SendBuffer  int           `mapstructure:"send_buffer"`
}

type ICEConfig struct {
	STUN            []string      `mapstructure:"stun"`
	ConfigURL       string        `mapstructure:"config_url"`
	RestartAttempts int           `mapstructure:"restart_attempts"`
	RestartInitial  time.Duration `mapstructure:"restart_initial"`
	RestartMax      time.Duration `mapstructure:"restart_max"`
	RestartTimeout  time.Duration `mapstructure:"restart_timeout"`
	// RestartOffer pushes client restart offers, for servers that answer them.
	RestartOffer bool `mapstructure:"restart_offer"`
}

type MediaConfig struct {
	CameraFile string `mapstructure:"camera_file"`
	MicFile    string `mapstructure:"mic_file"`
	ScreenFile string `mapstructure:"screen_file"`
	Loop       bool   `mapstructure:"loop"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type ChatConfig struct {
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// flagKeys binds command-line flags to config keys.
var flagKeys = map[string]string{
	"mode":        "mode",
	"log-level":   "log_level",
	"server":      "server.url",
	"room":        "server.room",
	"name":        "server.name",
	"ice-config":  "ice.config_url",
	"stun":        "ice.stun",
	"camera":      "media.camera_file",
	"mic":         "media.mic_file",
	"screen":      "media.screen_file",
	"loop":        "media.loop",
	"http-addr":   "http.addr",
	"chat-limit":  "chat.rate_limit",
	"chat-window": "chat.rate_window",
}

func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("huddle", pflag.ContinueOnError)
	fs.String("config", "", "config file (default config/config.<CONFIG_ENV>.yaml)")
	fs.String("mode", "", "gin mode: debug or release")
	fs.String("log-level", "", "log level")
	fs.String("server", "", "signaling server url")
	fs.String("room", "", "room to join")
	fs.String("name", "", "display name")
	fs.String("ice-config", "", "url returning the ICE server list")
	fs.StringSlice("stun", nil, "STUN server urls")
	fs.String("camera", "", "IVF file used as camera")
	fs.String("mic", "", "Ogg/Opus file used as microphone")
	fs.String("screen", "", "IVF file used as screen capture")
	fs.Bool("loop", false, "restart capture files when they end")
	fs.String("http-addr", "", "local control API address")
	fs.Int("chat-limit", 0, "chat messages allowed per window")
	fs.Duration("chat-window", 0, "chat rate window")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.url", "http://localhost:4000")
	v.SetDefault("server.join_timeout", "10s")
	v.SetDefault("server.heartbeat", "30s")
	v.SetDefault("server.send_buffer", 64)
	v.SetDefault("ice.restart_attempts", 5)
	v.SetDefault("ice.restart_initial", "500ms")
	v.SetDefault("ice.restart_max", "10s")
	v.SetDefault("ice.restart_timeout", "15s")
	v.SetDefault("ice.restart_offer", false)
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("chat.rate_limit", 5)
	v.SetDefault("chat.rate_window", "5s")
}

// Load reads defaults, the config file, HUDDLE_* env vars and args, in
// increasing priority.
func Load(args []string) (*Config, error) {
	fs := flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	fileName, _ := fs.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("HUDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("server", cfg.Server.URL).
		Str("room", cfg.Server.Room).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Server.Room = strings.TrimSpace(c.Server.Room)
	c.Server.Name = strings.TrimSpace(c.Server.Name)
	if c.Server.Room == "" {
		return ErrMissingRoom
	}
	if c.Server.Name == "" {
		return ErrMissingName
	}
	return nil
}
