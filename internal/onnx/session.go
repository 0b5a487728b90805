// Package onnx runs local transformer pipelines through hugot.
package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/ppiankov/verisense/internal/util"
)

var (
	sessionMu sync.Mutex
	session   *hugot.Session
	refs      int
)

// AcquireSession returns the process-wide hugot session, creating it on first use.
// Every call must be paired with ReleaseSession.
func AcquireSession() (*hugot.Session, error) {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if session == nil {
		s, err := hugot.NewORTSession()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
		}
		slog.Info("[ONNX] Session initialized", slog.String("runtime", "onnxruntime"))
		session = s
	}
	refs++
	return session, nil
}

// ReleaseSession drops one reference and destroys the session after the last one
func ReleaseSession() {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if refs == 0 {
		return
	}
	refs--
	if refs == 0 && session != nil {
		if err := session.Destroy(); err != nil {
			slog.Warn("[ONNX] Failed to destroy session", slog.String("error", err.Error()))
		}
		session = nil
	}
}

// EnsureModel returns a local directory holding modelName, downloading it into
// cacheDir when it is not there yet. An explicit modelPath wins.
func EnsureModel(modelName, modelPath, cacheDir string) (string, error) {
	if modelPath != "" {
		path := util.ExpandPath(modelPath)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("model path %s: %w", path, err)
		}
		return path, nil
	}

	dir := util.ExpandPath(cacheDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	local := filepath.Join(dir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(local); err == nil {
		slog.Info("[ONNX] Using existing model", slog.String("path", local))
		return local, nil
	}

	slog.Info("[ONNX] Model not found, downloading...", slog.String("model", modelName))
	path, err := hugot.DownloadModel(modelName, dir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", modelName, err)
	}
	slog.Info("[ONNX] Model downloaded successfully", slog.String("path", path))
	return path, nil
}
