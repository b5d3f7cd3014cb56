package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultCandidates lists database locations in search order: next to the
// executable, the working directory, a data subdirectory of the executable
// directory, the user home and the temp directory.
func DefaultCandidates(name string) []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), name))
	}
	if wd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(wd, name))
	}
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "data", name))
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".signaltrader", name))
	}
	out = append(out, filepath.Join(os.TempDir(), name))
	return out
}

// writable reports whether a file can be created next to path.
func writable(fs afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	p := filepath.Join(dir, ".write-check")
	if err := afero.WriteFile(fs, p, []byte("ok"), 0o644); err != nil {
		return err
	}
	return fs.Remove(p)
}

// OpenStore opens the first candidate that accepts a write check and a
// schema. If none does it returns an in-memory store, in which case the
// backup tiers are what survives a restart.
func OpenStore(fs afero.Fs, candidates []string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, path := range candidates {
		if err := writable(fs, path); err != nil {
			logger.Debug("ledger candidate rejected", zap.String("path", path), zap.Error(err))
			continue
		}
		store, err := NewSQLite(path)
		if err != nil {
			logger.Debug("ledger candidate failed to open", zap.String("path", path), zap.Error(err))
			continue
		}
		logger.Info("ledger database opened", zap.String("path", path))
		return store, nil
	}

	logger.Warn("no writable ledger location, using in-memory database",
		zap.Strings("candidates", candidates))
	store, err := NewSQLite(MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("open in-memory ledger: %w", err)
	}
	return store, nil
}
