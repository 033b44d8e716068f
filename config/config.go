package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	GlobalConfig *Config
)

type Config struct {
	Port     int    `json:"port" toml:"port"`
	LogLevel string `json:"logLevel" toml:"log_level"`
	LogFile  string `json:"logFile" toml:"log_file"`

	// Source 默认播放的视频文件或 URL
	Source       string  `json:"source" toml:"source"`
	Camera       int     `json:"camera" toml:"camera"`
	UseCamera    bool    `json:"use_camera" toml:"use_camera"`
	UseQueue     bool    `json:"use_queue" toml:"use_queue"`
	ScaleMode    string  `json:"scale_mode" toml:"scale_mode"`
	PlaybackRate float64 `json:"playback_rate" toml:"playback_rate"`
	DataDir      string  `json:"data_dir" toml:"data_dir"`
	FontPath     string  `json:"font_path" toml:"font_path"`

	WindowTitle  string `json:"window_title" toml:"window_title"`
	WindowWidth  int    `json:"window_width" toml:"window_width"`
	WindowHeight int    `json:"window_height" toml:"window_height"`

	QueueCapacity   int      `json:"queue_capacity" toml:"queue_capacity"`
	QueuePutTimeout Duration `json:"queue_put_timeout" toml:"queue_put_timeout"`

	Canny CannyConfig `json:"canny" toml:"canny"`
	Blur  BlurConfig  `json:"blur" toml:"blur"`
}

type CannyConfig struct {
	Enabled bool    `json:"enabled" toml:"enabled"`
	Low     float32 `json:"low" toml:"low"`
	High    float32 `json:"high" toml:"high"`
}

type BlurConfig struct {
	Enabled bool    `json:"enabled" toml:"enabled"`
	Sigma   float64 `json:"sigma" toml:"sigma"`
}

// Duration accepts "250ms" style strings in both JSON and TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(b))
	}
	d.Duration = v
	return nil
}

func init() {
	GlobalConfig = Default()
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Port:            0,
		LogLevel:        "info",
		LogFile:         "logs/cvwidgets.log",
		Camera:          0,
		ScaleMode:       "downscale",
		PlaybackRate:    1,
		DataDir:         "data",
		WindowTitle:     "cvwidgets",
		WindowWidth:     960,
		WindowHeight:    600,
		QueueCapacity:   10,
		QueuePutTimeout: Duration{time.Second},
		Canny:           CannyConfig{Low: 50, High: 200},
		Blur:            BlurConfig{Sigma: 25},
	}
}

// LoadConfig reads path (.json or .toml) over the defaults and installs the
// result as GlobalConfig. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	// 读取配置文件内容
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("config file %s not found, using defaults", path)
			GlobalConfig = config
			return config, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// 解析配置文件内容
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(file, config)
	default:
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = config

	log.Infof("Source: %v", config.Source)
	log.Infof("UseCamera: %v, Camera: %v", config.UseCamera, config.Camera)
	log.Infof("ScaleMode: %v", config.ScaleMode)
	return config, nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.PlaybackRate <= 0 {
		return errors.Errorf("invalid playback rate %v", c.PlaybackRate)
	}
	if c.QueueCapacity <= 0 {
		return errors.Errorf("invalid queue capacity %d", c.QueueCapacity)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return errors.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	return nil
}
