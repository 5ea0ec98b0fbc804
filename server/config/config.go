package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig    `yaml:"server"`
	Logging        LoggingConfig   `yaml:"logging"`
	Paths          PathsConfig     `yaml:"paths"`
	Downloads      DownloadsConfig `yaml:"downloads"`
	Authentication AuthConfig      `yaml:"authentication"`
	path           string
}

type ServerConfig struct {
	BaseURL   string `yaml:"base_url"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	QueueSize int    `yaml:"queue_size"`
}

type LoggingConfig struct {
	LogPath           string `yaml:"log_path"`
	EnableFileLogging bool   `yaml:"enable_file_logging"`
}

type PathsConfig struct {
	DownloadPath      string `yaml:"download_path"`
	DownloaderPath    string `yaml:"downloader_path"`
	TranscoderPath    string `yaml:"transcoder_path"`
	CookiesFile       string `yaml:"cookies_file"`
	LocalDatabasePath string `yaml:"local_database_path"`
}

type DownloadsConfig struct {
	// Exit codes treated as success besides 0. Some yt-dlp releases
	// exit 1 on partially failed playlists, so this stays configurable.
	SuccessExitCodes     []int    `yaml:"success_exit_codes"`
	VideoOutputFormat    string   `yaml:"video_output_format"`
	AudioOutputFormat    string   `yaml:"audio_output_format"`
	CustomFormatSelector string   `yaml:"custom_format_selector"`
	AutoHideDelay        Duration `yaml:"auto_hide_delay"`
	ThrottleInterval     Duration `yaml:"throttle_interval"`
	KillGracePeriod      Duration `yaml:"kill_grace_period"`
	AutoArchive          bool     `yaml:"auto_archive"`
}

// Duration decodes yaml strings like "200ms" or "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type AuthConfig struct {
	RequireAuth bool   `yaml:"require_auth"`
	JWTSecret   string `yaml:"jwt_secret"`
}

var (
	instance     *Config
	instanceOnce sync.Once
)

func Instance() *Config {
	instanceOnce.Do(func() {
		instance = &Config{}
		instance.setDefaults()
	})
	return instance
}

func (c *Config) setDefaults() {
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 3033
	c.Server.QueueSize = 2
	c.Paths.DownloadPath = "."
	c.Paths.DownloaderPath = "yt-dlp"
	c.Paths.TranscoderPath = "ffmpeg"
	c.Paths.LocalDatabasePath = "."
	c.Logging.LogPath = "yt-dlp-sessiond.log"
	c.Downloads.VideoOutputFormat = "mp4"
	c.Downloads.AudioOutputFormat = "mp3"
	c.Downloads.AutoHideDelay = Duration(time.Second * 5)
	c.Downloads.ThrottleInterval = Duration(time.Millisecond * 200)
	c.Downloads.KillGracePeriod = Duration(time.Second * 3)
}

// Load reads the YAML config file at path into the singleton. A missing
// file is not an error, the defaults stay in place.
func (c *Config) Load(path string) error {
	c.path = path

	fd, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer fd.Close()

	return yaml.NewDecoder(fd).Decode(c)
}

// Path of the directory containing the config file
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// Absolute path of the config file
func (c *Config) Path() string { return c.path }
