package simview

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultServerURL is where the simulation server listens locally.
	DefaultServerURL = "http://localhost:8000"
	// DefaultReconnectDelay is the fixed wait before reopening the event stream.
	DefaultReconnectDelay = 5 * time.Second
	// DefaultSaveDebounce coalesces bursts of viewport changes into one write.
	DefaultSaveDebounce = 120 * time.Millisecond
	// DefaultSpritePath is the sprite URL template, relative to the server.
	DefaultSpritePath = "/resources/sprites/%s.png"
	// DefaultTweenEasing is the curve entities slide along.
	DefaultTweenEasing = "linear"
	// DefaultStateFile holds persisted view state.
	DefaultStateFile = "simview-state.yaml"

	DefaultMinScale = 0.1
	DefaultMaxScale = 1.0

	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 800

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5
	DefaultLogMaxAgeDays = 7

	envPrefix = "SIMVIEW"
)

// Config captures all runtime tunables of the viewer.
type Config struct {
	ServerURL      string
	ReconnectDelay time.Duration
	TweenDuration  time.Duration
	TweenEasing    string
	SaveDebounce   time.Duration
	SpritePath     string
	RenderSprites  bool
	StateFile      string
	MinScale       float64
	MaxScale       float64
	DampenWheel    bool
	WindowTitle    string
	WindowWidth    int
	WindowHeight   int
	Debug          bool
	Log            LogConfig
}

// LogConfig captures structured logging options.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		ServerURL:      DefaultServerURL,
		ReconnectDelay: DefaultReconnectDelay,
		TweenDuration:  DefaultTweenDuration,
		TweenEasing:    DefaultTweenEasing,
		SaveDebounce:   DefaultSaveDebounce,
		SpritePath:     DefaultSpritePath,
		StateFile:      DefaultStateFile,
		MinScale:       DefaultMinScale,
		MaxScale:       DefaultMaxScale,
		DampenWheel:    runtime.GOOS == "darwin",
		WindowTitle:    "Moisture Farm",
		WindowWidth:    DefaultWindowWidth,
		WindowHeight:   DefaultWindowHeight,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("reconnect_delay", d.ReconnectDelay)
	v.SetDefault("tween_ms", d.TweenDuration.Milliseconds())
	v.SetDefault("tween_easing", d.TweenEasing)
	v.SetDefault("save_debounce", d.SaveDebounce)
	v.SetDefault("sprite_path", d.SpritePath)
	v.SetDefault("render_sprites", d.RenderSprites)
	v.SetDefault("state_file", d.StateFile)
	v.SetDefault("min_scale", d.MinScale)
	v.SetDefault("max_scale", d.MaxScale)
	v.SetDefault("dampen_wheel", d.DampenWheel)
	v.SetDefault("window.title", d.WindowTitle)
	v.SetDefault("window.width", d.WindowWidth)
	v.SetDefault("window.height", d.WindowHeight)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}

// LoadConfig reads configuration from, in increasing precedence: defaults,
// the optional config file at path, a .env file in the working directory and
// SIMVIEW_* environment variables. All validation problems are reported in a
// single error.
func LoadConfig(path string) (Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("simview: read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		ServerURL:      strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		ReconnectDelay: v.GetDuration("reconnect_delay"),
		TweenDuration:  time.Duration(v.GetInt64("tween_ms")) * time.Millisecond,
		TweenEasing:    strings.TrimSpace(v.GetString("tween_easing")),
		SaveDebounce:   v.GetDuration("save_debounce"),
		SpritePath:     v.GetString("sprite_path"),
		RenderSprites:  v.GetBool("render_sprites"),
		StateFile:      strings.TrimSpace(v.GetString("state_file")),
		MinScale:       v.GetFloat64("min_scale"),
		MaxScale:       v.GetFloat64("max_scale"),
		DampenWheel:    v.GetBool("dampen_wheel"),
		WindowTitle:    v.GetString("window.title"),
		WindowWidth:    v.GetInt("window.width"),
		WindowHeight:   v.GetInt("window.height"),
		Debug:          v.GetBool("debug"),
		Log: LogConfig{
			Level:      strings.TrimSpace(v.GetString("log.level")),
			Format:     strings.TrimSpace(v.GetString("log.format")),
			File:       strings.TrimSpace(v.GetString("log.file")),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("server_url must be an absolute URL, got %q", c.ServerURL))
	}
	if c.ReconnectDelay <= 0 {
		problems = append(problems, fmt.Sprintf("reconnect_delay must be positive, got %s", c.ReconnectDelay))
	}
	if c.TweenDuration <= 0 {
		problems = append(problems, fmt.Sprintf("tween_ms must be positive, got %d", c.TweenDuration.Milliseconds()))
	}
	if _, ok := EasingByName(c.TweenEasing); !ok {
		problems = append(problems, fmt.Sprintf("tween_easing %q is not a known curve", c.TweenEasing))
	}
	if c.SaveDebounce < 0 {
		problems = append(problems, fmt.Sprintf("save_debounce must not be negative, got %s", c.SaveDebounce))
	}
	if !strings.Contains(c.SpritePath, "%s") {
		problems = append(problems, fmt.Sprintf("sprite_path must contain %%s, got %q", c.SpritePath))
	}
	if c.MinScale <= 0 || c.MaxScale < c.MinScale {
		problems = append(problems, fmt.Sprintf("scale range must satisfy 0 < min_scale <= max_scale, got [%g, %g]", c.MinScale, c.MaxScale))
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		problems = append(problems, fmt.Sprintf("window size must be positive, got %dx%d", c.WindowWidth, c.WindowHeight))
	}

	if len(problems) > 0 {
		return fmt.Errorf("simview: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
