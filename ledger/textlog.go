package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// TextLog is the last resort audit trail, one free-form line per event.
// It is never parsed back.
type TextLog struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewTextLog(fs afero.Fs, path string) *TextLog {
	return &TextLog{fs: fs, path: path}
}

func (t *TextLog) Path() string { return t.path }

func (t *TextLog) Append(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.fs.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	f, err := t.fs.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(strings.TrimRight(line, "\n") + "\n")
	return err
}

func openLine(r TradeRecord) string {
	return fmt.Sprintf("%s OPEN ticket=%s %s %s lots=%.2f entry=%.5f sl=%.5f tp=%.5f balance=%.2f strategy=%s reason=%q",
		r.Time.UTC().Format(time.RFC3339), r.Ticket, r.Direction, r.Symbol, r.Lots,
		r.EntryPrice, r.StopLoss, r.TakeProfit, r.Balance, r.Strategy, r.Reason)
}

func closeLine(ticket string, e Exit) string {
	return fmt.Sprintf("%s CLOSE ticket=%s exit=%.5f profit=%.2f reason=%q",
		e.Time.UTC().Format(time.RFC3339), ticket, e.Price, e.Profit, e.Reason)
}

func rejectLine(when time.Time, symbol, direction, reason string) string {
	return fmt.Sprintf("%s REJECTED %s %s reason=%q",
		when.UTC().Format(time.RFC3339), direction, symbol, reason)
}
