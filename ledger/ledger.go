package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Tier names where a record was durably written.
type Tier int

const (
	TierNone Tier = iota
	TierText
	TierBackup
	TierStore
)

func (t Tier) String() string {
	switch t {
	case TierStore:
		return "store"
	case TierBackup:
		return "backup"
	case TierText:
		return "text"
	default:
		return "none"
	}
}

type Options struct {
	// Store is optional; without it the backup tiers carry every write.
	Store    Store
	Backup   *Backup
	Text     *TextLog
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// Ledger writes through the tiers and serves read queries. Writes never
// return an error to the caller.
type Ledger struct {
	store  Store
	backup *Backup
	text   *TextLog
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

func New(opts Options) *Ledger {
	l := &Ledger{
		store:  opts.Store,
		backup: opts.Backup,
		text:   opts.Text,
		loc:    opts.Location,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Close closes the structured store.
func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

// DateOf returns the ledger calendar date of t.
func (l *Ledger) DateOf(t time.Time) string {
	return t.In(l.loc).Format(dateLayout)
}

func (l *Ledger) dayBounds(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, date, l.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// Log records a new trade. The store is tried once, the backup always
// mirrors the record, and the text log is written only if the backup
// fails. Cancellation of ctx does not interrupt the write.
func (l *Ledger) Log(ctx context.Context, rec TradeRecord) Tier {
	ctx = context.WithoutCancel(ctx)
	if rec.Time.IsZero() {
		rec.Time = l.now()
	}
	rec.Status = rec.statusOrOpen()

	tier := TierNone
	if l.storeWrite(func() error {
		id, err := l.store.InsertTrade(ctx, rec)
		rec.ID = id
		return err
	}, rec.Ticket) {
		tier = TierStore
		l.updatePerformance(ctx, l.DateOf(rec.Time))
	}

	if err := l.backupAppend(rec); err != nil {
		l.logger.Warn("ledger backup write failed",
			zap.String("ticket", rec.Ticket), zap.Error(err))
		if l.textAppend(openLine(rec)) && tier == TierNone {
			tier = TierText
		}
	} else if tier == TierNone {
		tier = TierBackup
	}

	l.logTier("trade logged", rec.Ticket, tier)
	return tier
}

// LogClose marks ticket closed with the exit details and recomputes the
// rollup of the trade's entry date.
func (l *Ledger) LogClose(ctx context.Context, ticket string, exit Exit) Tier {
	ctx = context.WithoutCancel(ctx)
	if exit.Time.IsZero() {
		exit.Time = l.now()
	}

	var rec TradeRecord
	tier := TierNone
	if l.storeWrite(func() error {
		var err error
		rec, err = l.store.CloseTrade(ctx, ticket, exit)
		return err
	}, ticket) {
		tier = TierStore
		l.updatePerformance(ctx, l.DateOf(rec.Time))
	} else {
		rec = l.backupVersion(ticket)
		rec.applyExit(exit)
	}

	if err := l.backupAppend(rec); err != nil {
		l.logger.Warn("ledger backup write failed",
			zap.String("ticket", ticket), zap.Error(err))
		if l.textAppend(closeLine(ticket, exit)) && tier == TierNone {
			tier = TierText
		}
	} else if tier == TierNone {
		tier = TierBackup
	}

	l.logTier("trade close logged", ticket, tier)
	return tier
}

// LogRejected writes an order rejection to the text audit trail only.
func (l *Ledger) LogRejected(when time.Time, symbol, direction, reason string) {
	l.textAppend(rejectLine(when, symbol, direction, reason))
}

// RecordMarketData stores an indicator snapshot row, best effort.
func (l *Ledger) RecordMarketData(ctx context.Context, md MarketData) {
	if l.store == nil {
		return
	}
	if err := l.store.InsertMarketData(context.WithoutCancel(ctx), md); err != nil {
		l.logger.Warn("market data not recorded", zap.String("symbol", md.Symbol), zap.Error(err))
	}
}

func (l *Ledger) storeWrite(fn func() error, ticket string) bool {
	if l.store == nil {
		return false
	}
	if err := fn(); err != nil {
		l.logger.Warn("ledger store write failed",
			zap.String("ticket", ticket), zap.Error(err))
		return false
	}
	return true
}

func (l *Ledger) backupAppend(rec TradeRecord) error {
	if l.backup == nil {
		return errors.New("no backup configured")
	}
	return l.backup.Append(rec)
}

func (l *Ledger) backupVersion(ticket string) TradeRecord {
	if l.backup != nil {
		if rec, ok, err := l.backup.Find(ticket); err == nil && ok {
			return rec
		}
	}
	return TradeRecord{Ticket: ticket}
}

func (l *Ledger) textAppend(line string) bool {
	if l.text == nil {
		l.logger.Error("ledger text log not configured, record lost", zap.String("line", line))
		return false
	}
	if err := l.text.Append(line); err != nil {
		l.logger.Error("ledger text log write failed", zap.String("line", line), zap.Error(err))
		return false
	}
	return true
}

func (l *Ledger) logTier(msg, ticket string, tier Tier) {
	if tier == TierNone {
		l.logger.Error(msg+" in no tier", zap.String("ticket", ticket))
		return
	}
	l.logger.Debug(msg, zap.String("ticket", ticket), zap.String("tier", tier.String()))
}

// updatePerformance recomputes the rollup for date from the store.
func (l *Ledger) updatePerformance(ctx context.Context, date string) {
	start, end, err := l.dayBounds(date)
	if err != nil {
		l.logger.Warn("performance update skipped", zap.Error(err))
		return
	}
	recs, err := l.store.TradesBetween(ctx, start, end, "")
	if err != nil {
		l.logger.Warn("performance update failed", zap.String("date", date), zap.Error(err))
		return
	}
	if err := l.store.UpsertDailyPerformance(ctx, Rollup(date, recs)); err != nil {
		l.logger.Warn("performance update failed", zap.String("date", date), zap.Error(err))
	}
}

// GetRecentTrades returns trades entered in the last days, newest first,
// optionally restricted to symbol. When the store is unavailable or empty
// the JSON backup answers instead.
func (l *Ledger) GetRecentTrades(ctx context.Context, days int, symbol string) ([]TradeRecord, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	now := l.now()
	cutoff := now.AddDate(0, 0, -days)

	if l.store != nil {
		recs, err := l.store.TradesBetween(ctx, cutoff, now.Add(time.Second), symbol)
		if err != nil {
			l.logger.Warn("trade history from store failed, using backup", zap.Error(err))
		} else if len(recs) > 0 {
			return newestFirst(recs), nil
		}
	}

	recs, err := l.backupBetween(cutoff, now.Add(time.Second), symbol)
	if err != nil {
		return nil, err
	}
	return newestFirst(recs), nil
}

func (l *Ledger) backupBetween(start, end time.Time, symbol string) ([]TradeRecord, error) {
	if l.backup == nil {
		return nil, nil
	}
	all, err := l.backup.Load()
	if err != nil {
		return nil, err
	}
	var out []TradeRecord
	for _, r := range Fold(all) {
		if r.Time.Before(start) || !r.Time.Before(end) {
			continue
		}
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newestFirst(recs []TradeRecord) []TradeRecord {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Time.After(recs[j].Time) })
	return recs
}

// GetStatistics summarises the last days of trades.
func (l *Ledger) GetStatistics(ctx context.Context, days int) (Statistics, error) {
	recs, err := l.GetRecentTrades(ctx, days, "")
	if err != nil {
		return Statistics{}, err
	}
	return Summarise(days, recs), nil
}

// DailyPerformance returns the stored rollup for date. Without a stored row
// it is computed from the backup records of that date.
func (l *Ledger) DailyPerformance(ctx context.Context, date string) (DailyPerformance, error) {
	start, end, err := l.dayBounds(date)
	if err != nil {
		return DailyPerformance{}, err
	}

	if l.store != nil {
		p, err := l.store.DailyPerformance(ctx, date)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			l.logger.Warn("performance from store failed, using backup",
				zap.String("date", date), zap.Error(err))
		}
	}

	recs, err := l.backupBetween(start, end, "")
	if err != nil {
		return DailyPerformance{}, err
	}
	return Rollup(date, recs), nil
}
