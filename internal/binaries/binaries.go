// Package binaries locates the ffmpeg transcoder binary, optionally
// downloading a static build when none is installed.
package binaries

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/errs"

	"github.com/ulikunitz/xz"
)

const (
	// downloadTimeout is the HTTP client timeout for downloading archives.
	downloadTimeout = 10 * time.Minute
	// filePermExecutable is the file permission for executable binaries.
	filePermExecutable = 0o755

	platformLinux = "linux"
	archARM64     = "arm64"
	archAMD64     = "amd64"

	ffmpegName = "ffmpeg"
)

// Manager discovers and installs external binaries.
type Manager struct {
	log    *slog.Logger
	cfg    *config.Config
	client *http.Client
}

// New creates a new binary manager.
func New(log *slog.Logger, cfg *config.Config) *Manager {
	return &Manager{
		log:    log.With(slog.String("package", "binaries")),
		cfg:    cfg,
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// EnsureFFmpeg returns a usable ffmpeg path. Discovery order: configured
// directory, PATH, previously installed copy, then download when
// auto-install is enabled. An empty path with ErrBinaryNotFound means
// trimming and audio extraction are off until ffmpeg appears.
func (m *Manager) EnsureFFmpeg(ctx context.Context) (string, error) {
	if dir := m.cfg.Binaries.FFmpegDir; dir != "" {
		if path, ok := findInDir(dir, ffmpegName); ok {
			m.log.InfoContext(ctx, "ffmpeg found in configured dir", slog.String("path", path))

			return path, nil
		}
	}

	if path, err := exec.LookPath(ffmpegName); err == nil {
		m.log.InfoContext(ctx, "ffmpeg found on PATH", slog.String("path", path))

		return path, nil
	}

	if path, ok := findInDir(m.cfg.Binaries.BinsDir, ffmpegName); ok {
		m.log.InfoContext(ctx, "ffmpeg found in bins dir", slog.String("path", path))

		return path, nil
	}

	if !m.cfg.Binaries.AutoInstall {
		return "", fmt.Errorf("%w: %s", errs.ErrBinaryNotFound, ffmpegName)
	}

	return m.installFFmpeg(ctx)
}

func findInDir(dir, name string) (string, bool) {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	path := filepath.Join(dir, name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}

	return path, true
}

func (m *Manager) archiveURL() (string, error) {
	if runtime.GOOS != platformLinux {
		return "", fmt.Errorf("%w: %s/%s", errs.ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}

	switch runtime.GOARCH {
	case archAMD64:
		return m.cfg.Binaries.FFmpegLinuxAMD64, nil
	case archARM64:
		return m.cfg.Binaries.FFmpegLinuxARM64, nil
	default:
		return "", fmt.Errorf("%w: %s/%s", errs.ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}
}

func (m *Manager) installFFmpeg(ctx context.Context) (string, error) {
	url, err := m.archiveURL()
	if err != nil {
		return "", err
	}

	m.log.InfoContext(ctx, "downloading ffmpeg static build, it may take some time...",
		slog.String("url", url))

	if err := os.MkdirAll(m.cfg.Binaries.BinsDir, filePermExecutable); err != nil {
		return "", fmt.Errorf("create bins dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download archive: unexpected status %s", resp.Status)
	}

	extracted, err := m.extractTarXz(resp.Body, []string{ffmpegName, "ffprobe"})
	if err != nil {
		return "", fmt.Errorf("extract archive: %w", err)
	}

	path, ok := extracted[ffmpegName]
	if !ok {
		return "", fmt.Errorf("%w: %s missing from archive", errs.ErrBinaryNotFound, ffmpegName)
	}

	m.log.InfoContext(ctx, "ffmpeg installed", slog.String("path", path))

	return path, nil
}

// extractTarXz streams a .tar.xz archive, writing the wanted bin/ members
// into the bins dir. Returns name -> installed path.
func (m *Manager) extractTarXz(r io.Reader, wanted []string) (map[string]string, error) {
	xzReader, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}

	extracted := make(map[string]string, len(wanted))
	tarReader := tar.NewReader(xzReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("tar next: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name, ok := wantedMember(header.Name, wanted)
		if !ok {
			continue
		}

		dst := filepath.Join(m.cfg.Binaries.BinsDir, name)
		if err := writeExecutable(dst, tarReader); err != nil {
			return nil, err
		}

		extracted[name] = dst

		if len(extracted) == len(wanted) {
			break
		}
	}

	return extracted, nil
}

// wantedMember matches archive members like ".../bin/ffmpeg".
func wantedMember(member string, wanted []string) (string, bool) {
	base := filepath.Base(member)
	if !strings.Contains(member, "/bin/") {
		return "", false
	}

	for _, name := range wanted {
		if base == name {
			return name, true
		}
	}

	return "", false
}

func writeExecutable(dst string, r io.Reader) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return nil
}
