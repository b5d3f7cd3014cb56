package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Backup is a JSON array of every record version ever logged. It is
// rewritten whole on each append through a temp file and rename so a crash
// never leaves a truncated file behind.
type Backup struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewBackup(fs afero.Fs, path string) *Backup {
	return &Backup{fs: fs, path: path}
}

func (b *Backup) Path() string { return b.path }

// Load returns every entry in append order. A missing file is empty.
func (b *Backup) Load() ([]TradeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}

func (b *Backup) load() ([]TradeRecord, error) {
	raw, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", b.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var recs []TradeRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", b.path, err)
	}
	return recs, nil
}

// Append adds rec to the end of the collection.
func (b *Backup) Append(rec TradeRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recs, err := b.load()
	if err != nil {
		return err
	}
	recs = append(recs, rec)

	raw, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return b.replace(raw)
}

func (b *Backup) replace(raw []byte) error {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create backup temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		b.fs.Remove(tmpName)
		return fmt.Errorf("write backup temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		b.fs.Remove(tmpName)
		return fmt.Errorf("sync backup temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmpName)
		return err
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		b.fs.Remove(tmpName)
		return fmt.Errorf("replace backup %s: %w", b.path, err)
	}
	return nil
}

// Find returns the latest version of ticket.
func (b *Backup) Find(ticket string) (TradeRecord, bool, error) {
	recs, err := b.Load()
	if err != nil {
		return TradeRecord{}, false, err
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Ticket == ticket {
			return recs[i], true, nil
		}
	}
	return TradeRecord{}, false, nil
}

// Fold collapses record versions to the latest per ticket, ordered by entry
// time. Entries without a ticket are kept as they are.
func Fold(recs []TradeRecord) []TradeRecord {
	latest := make(map[string]int)
	var out []TradeRecord
	for _, r := range recs {
		if r.Ticket == "" {
			out = append(out, r)
			continue
		}
		if i, ok := latest[r.Ticket]; ok {
			out[i] = r
			continue
		}
		latest[r.Ticket] = len(out)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
