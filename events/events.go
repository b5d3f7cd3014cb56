// Package events publishes trade notifications for the alerting layer.
package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type Type string

const (
	TradeOpened   Type = "TRADE_OPENED"
	TradeClosed   Type = "TRADE_CLOSED"
	OrderRejected Type = "ORDER_REJECTED"
	TradingHalted Type = "TRADING_HALTED"
)

// TradeEvent is one notification. Fields that do not apply to the event
// type are left zero.
type TradeEvent struct {
	EventType  Type      `json:"event_type"`
	Symbol     string    `json:"symbol"`
	Ticket     string    `json:"ticket,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	Lots       float64   `json:"lots,omitempty"`
	Price      float64   `json:"price,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Profit     float64   `json:"profit,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Text renders the event as a short human readable notification.
func (e TradeEvent) Text() string {
	var b strings.Builder
	switch e.EventType {
	case TradeOpened:
		fmt.Fprintf(&b, "%s %s %.2f lots @ %.5f", e.Direction, e.Symbol, e.Lots, e.Price)
		fmt.Fprintf(&b, "\nSL %.5f  TP %.5f", e.StopLoss, e.TakeProfit)
	case TradeClosed:
		fmt.Fprintf(&b, "CLOSED %s %s @ %.5f profit %.2f", e.Symbol, e.Ticket, e.Price, e.Profit)
	case OrderRejected:
		fmt.Fprintf(&b, "REJECTED %s %s", e.Direction, e.Symbol)
	case TradingHalted:
		fmt.Fprintf(&b, "TRADING HALTED %s", e.Symbol)
	default:
		fmt.Fprintf(&b, "%s %s", e.EventType, e.Symbol)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", e.Reason)
	}
	return b.String()
}

// Publisher delivers events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, e TradeEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, TradeEvent) error { return nil }
func (Nop) Close() error                              { return nil }

// Memory keeps published events in order; useful for dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	events []TradeEvent
}

func (m *Memory) Publish(_ context.Context, e TradeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *Memory) Events() []TradeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeEvent, len(m.events))
	copy(out, m.events)
	return out
}
