package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Save writes the scenario to path atomically: the data goes to a temporary
// file in the same directory which is then renamed over the target.
func Save(ctx context.Context, path string, sc *Scenario) error {
	log := pslog.Ctx(ctx).With("scenario", path)
	if strings.TrimSpace(path) == "" {
		return errors.New("scenario path is required")
	}
	if sc == nil {
		return errors.New("scenario is nil")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("create scenario directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".scenario-*.tmp")
	if err != nil {
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("create temp scenario: %w", err)
	}
	if _, err := tmp.Write(Marshal(sc)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("write scenario: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("sync scenario: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("close scenario: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("chmod scenario: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		log.Warn("scenario save failed", "err", err)
		return fmt.Errorf("rename scenario: %w", err)
	}
	log.Debug("scenario saved", "entries", sc.Len(), "session", sc.Header.SessionID)
	return nil
}

// Load reads a scenario file.
func Load(ctx context.Context, path string) (*Scenario, error) {
	log := pslog.Ctx(ctx).With("scenario", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Unmarshal(data)
	if err != nil {
		log.Warn("scenario load failed", "err", err)
		return nil, err
	}
	log.Debug("scenario loaded", "entries", sc.Len(), "session", sc.Header.SessionID, "toolkit", sc.Header.Toolkit)
	return sc, nil
}
