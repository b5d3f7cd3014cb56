package ledger

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	ticket TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('BUY', 'SELL')),
	symbol TEXT NOT NULL,
	lots REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL DEFAULT 0,
	sl REAL NOT NULL DEFAULT 0,
	tp REAL NOT NULL DEFAULT 0,
	profit REAL NOT NULL DEFAULT 0,
	strategy TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	balance REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK(status IN ('OPEN', 'CLOSED', 'PENDING')),
	close_time DATETIME,
	close_reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_ticket ON trades(ticket);

CREATE TABLE IF NOT EXISTS performance (
	date TEXT PRIMARY KEY,
	total_trades INTEGER NOT NULL,
	winning_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	total_profit REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS market_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	price REAL NOT NULL,
	sma_fast REAL NOT NULL,
	sma_slow REAL NOT NULL,
	rsi REAL NOT NULL,
	macd REAL NOT NULL,
	macd_signal REAL NOT NULL,
	bb_upper REAL NOT NULL,
	bb_lower REAL NOT NULL,
	atr REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_market_data_timestamp ON market_data(timestamp);
`
