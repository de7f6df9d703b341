package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DownloadWaiter polls a directory until a matching download stops growing.
// This is an independent polling utility with its own bound; it sits outside
// the pipeline's retry engine on purpose.
type DownloadWaiter struct {
	Dir     string
	Timeout time.Duration
	// Interval between polls and between the two size samples; defaults to 1s.
	Interval time.Duration
	// FileName, when set, filters candidates by substring.
	FileName string
	// MoveTo, when set, relocates the stable file and the final path is the
	// destination.
	MoveTo string
}

// partialSuffixes marks in-progress downloads to skip.
var partialSuffixes = []string{".part", ".crdownload", ".tmp"}

// Wait blocks until a stable, non-empty download shows up or the timeout
// elapses, returning the final path.
func (w DownloadWaiter) Wait(log *zap.SugaredLogger) (string, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	if w.MoveTo != "" {
		if err := os.MkdirAll(w.MoveTo, 0o755); err != nil {
			return "", fmt.Errorf("create destination %s: %w", w.MoveTo, err)
		}
	}

	deadline := time.Now().Add(w.Timeout)
	for time.Now().Before(deadline) {
		if path, ok := w.findStable(interval); ok {
			if w.MoveTo == "" {
				log.Infof("download ready: %s", path)
				return path, nil
			}
			dst := filepath.Join(w.MoveTo, filepath.Base(path))
			if err := os.Rename(path, dst); err != nil {
				log.Warnf("could not move %s: %v", path, err)
				return path, nil
			}
			log.Infof("download moved to: %s", dst)
			return dst, nil
		}
		time.Sleep(interval)
	}
	return "", fmt.Errorf("timed out waiting for a stable download in %s", w.Dir)
}

func (w DownloadWaiter) findStable(interval time.Duration) (string, bool) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || isPartial(entry.Name()) {
			continue
		}
		if w.FileName != "" && !strings.Contains(entry.Name(), w.FileName) {
			continue
		}
		path := filepath.Join(w.Dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		size1 := info.Size()
		time.Sleep(interval)
		after, err := os.Stat(path)
		if err != nil {
			continue
		}
		if after.Size() == size1 && size1 > 0 {
			return path, true
		}
	}
	return "", false
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
