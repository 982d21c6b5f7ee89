package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"soundvault/config"
	"soundvault/logger"

	"github.com/google/uuid"
)

var (
	// ErrMissingURL is returned when no source URL was supplied.
	ErrMissingURL = errors.New("source URL is required")
	// ErrHostNotAllowed is returned for URLs outside the allow-list.
	ErrHostNotAllowed = errors.New("source host is not allowed")
)

// Converter downloads the best available audio stream for a remote URL
// using an external extraction tool. Every invocation is bounded by a
// timeout and downloads into a uniquely named file that the returned
// cleanup func always removes.
type Converter struct {
	ytdlpPath    string
	downloadDir  string
	timeout      time.Duration
	allowedHosts map[string]struct{}
}

// NewConverter creates a Converter from configuration.
func NewConverter(cfg *config.Config) *Converter {
	hosts := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		if h != "" {
			hosts[strings.ToLower(h)] = struct{}{}
		}
	}
	return &Converter{
		ytdlpPath:    cfg.YtdlpPath,
		downloadDir:  cfg.DownloadDir,
		timeout:      cfg.DownloadTimeout,
		allowedHosts: hosts,
	}
}

// ValidateURL checks that the URL is well-formed, uses http(s) and
// points at an allow-listed host.
func (c *Converter) ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrMissingURL
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrHostNotAllowed, raw)
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := c.allowedHosts[host]; !ok {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	return nil
}

// ObjectName derives a stable archive key for a source URL.
func (c *Converter) ObjectName(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return "converted/" + hex.EncodeToString(sum[:]) + ".webm"
}

// Download fetches the best audio stream into a temp file and returns
// its path with a cleanup func. Cleanup must be called on every path;
// it removes the file whether or not the download completed.
func (c *Converter) Download(ctx context.Context, raw string) (string, func(), error) {
	if err := c.ValidateURL(raw); err != nil {
		return "", func() {}, err
	}

	if err := os.MkdirAll(c.downloadDir, 0755); err != nil {
		return "", func() {}, fmt.Errorf("failed to create download directory: %w", err)
	}

	outputFile := filepath.Join(c.downloadDir, uuid.NewString()+".webm")
	cleanup := func() {
		if err := os.Remove(outputFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove temp download file",
				logger.String("path", outputFile),
				logger.ErrorField(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-f", "bestaudio",
		"--no-playlist",
		"-o", outputFile,
		raw,
	}

	cmd := exec.CommandContext(ctx, c.ytdlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		cleanup()
		if ctx.Err() == context.DeadlineExceeded {
			return "", func() {}, fmt.Errorf("audio download timed out after %s", c.timeout)
		}
		return "", func() {}, fmt.Errorf("audio extraction failed: %w: %s", err, stderr.String())
	}

	if _, err := os.Stat(outputFile); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("extraction tool produced no output file: %w", err)
	}

	logger.Info("audio download completed",
		logger.String("url", raw),
		logger.Duration("elapsed", time.Since(start)))
	return outputFile, cleanup, nil
}
