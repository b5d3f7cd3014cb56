package cmd

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/config"
	"github.com/rustyeddy/signaltrader/events"
	"github.com/rustyeddy/signaltrader/ledger"
	"github.com/rustyeddy/signaltrader/risk"
)

// openLedger opens the three ledger tiers on the OS filesystem.
func openLedger(fs afero.Fs, cfg *config.Config, log *zap.Logger) (*ledger.Ledger, error) {
	loc, err := cfg.Risk.Location()
	if err != nil {
		return nil, err
	}

	candidates := cfg.Ledger.DBCandidates
	if len(candidates) == 0 {
		candidates = ledger.DefaultCandidates(cfg.Ledger.DBName)
	}
	store, err := ledger.OpenStore(fs, candidates, log)
	if err != nil {
		return nil, err
	}

	return ledger.New(ledger.Options{
		Store:    store,
		Backup:   ledger.NewBackup(fs, cfg.Ledger.BackupPath),
		Text:     ledger.NewTextLog(fs, cfg.Ledger.FallbackLog),
		Location: loc,
		Logger:   log,
	}), nil
}

// riskStore returns the Redis state store when enabled and reachable. An
// unreachable server degrades to process memory: the loop still runs, but
// a restart forgets today's trade count and kill switch.
func riskStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (risk.StateStore, func()) {
	if !cfg.Redis.Enabled {
		return risk.NewMemoryStore(), func() {}
	}
	rs, err := risk.NewRedisStore(ctx, risk.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		log.Warn("redis unavailable, risk state kept in memory", zap.Error(err))
		return risk.NewMemoryStore(), func() {}
	}
	log.Info("risk state persisted to redis", zap.String("addr", cfg.Redis.Addr))
	return rs, func() {
		if err := rs.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
}

func publisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if !cfg.Kafka.Enabled {
		return events.Nop{}
	}
	p := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	log.Info("publishing trade events",
		zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", p.Topic()))
	return p
}
