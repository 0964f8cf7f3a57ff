// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	HTTP     HTTP
	App      App
	Job      Job
	Dir      Dir
	Storage  Storage
	Preview  Preview
	Binaries Binaries
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"VIDGRAB_APP_LOG_LEVEL" envDefault:"info"`
}

// HTTP holds HTTP server configuration.
type HTTP struct {
	Port            string        `env:"VIDGRAB_HTTP_PORT"             envDefault:":8080"`
	HandlerTimeout  time.Duration `env:"VIDGRAB_HTTP_HANDLER_TIMEOUT"  envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"VIDGRAB_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Job holds download job processing configuration.
type Job struct {
	Workers   int           `env:"VIDGRAB_JOB_WORKERS"    envDefault:"2"`
	QueueSize int           `env:"VIDGRAB_JOB_QUEUE_SIZE" envDefault:"100"`
	Timeout   time.Duration `env:"VIDGRAB_JOB_TIMEOUT"    envDefault:"30m"`
}

// Storage holds media registry retention configuration.
type Storage struct {
	TTL             time.Duration `env:"VIDGRAB_STORAGE_TTL"              envDefault:"168h"`
	CleanupInterval time.Duration `env:"VIDGRAB_STORAGE_CLEANUP_INTERVAL" envDefault:"1h"`
}

// Preview holds preview clip generation configuration.
type Preview struct {
	Duration time.Duration `env:"VIDGRAB_PREVIEW_DURATION" envDefault:"10s"`
	Timeout  time.Duration `env:"VIDGRAB_PREVIEW_TIMEOUT"  envDefault:"120s"`
}

// Binaries holds external binary discovery configuration.
type Binaries struct {
	// FFmpegDir is checked for ffmpeg/ffprobe before PATH.
	FFmpegDir string `env:"VIDGRAB_BINARIES_FFMPEG_DIR" envDefault:""`
	// BinsDir is where downloaded binaries are stored.
	BinsDir string `env:"VIDGRAB_BINARIES_BINS_DIR" envDefault:"./bins"`
	// AutoInstall downloads missing binaries instead of failing discovery.
	AutoInstall bool `env:"VIDGRAB_BINARIES_AUTO_INSTALL" envDefault:"false"`
	// FFmpegLinuxAMD64 and FFmpegLinuxARM64 are the static build archives used by AutoInstall.
	FFmpegLinuxAMD64 string `env:"VIDGRAB_BINARIES_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll
	FFmpegLinuxARM64 string `env:"VIDGRAB_BINARIES_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
}

// Dir holds directory paths for downloads, previews and the engine cache.
type Dir struct {
	Downloads string `env:"VIDGRAB_DIR_DOWNLOADS" envDefault:"./downloads"`
	Cache     string `env:"VIDGRAB_DIR_CACHE"     envDefault:"./data/cache"` // yt-dlp cache (meta, sigs)

	// Previews is derived: a previews subdirectory under Downloads.
	Previews string `env:"-"`
}

// SetAbsPaths converts all directory paths to absolute paths and derives
// the previews directory.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Downloads, err = filepath.Abs(c.Downloads); err != nil {
		return fmt.Errorf("downloads: %w", err)
	}

	if c.Cache, err = filepath.Abs(c.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	c.Previews = filepath.Join(c.Downloads, "previews")

	return nil
}

// SetAbsPaths converts binary directory paths to absolute paths.
func (b *Binaries) SetAbsPaths() error {
	var err error
	if b.BinsDir, err = filepath.Abs(b.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	if b.FFmpegDir != "" {
		if b.FFmpegDir, err = filepath.Abs(b.FFmpegDir); err != nil {
			return fmt.Errorf("ffmpeg dir: %w", err)
		}
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.Binaries.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set binaries absolute paths: %w", err)
	}

	return cfg, nil
}
