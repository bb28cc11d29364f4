package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	mode TEXT NOT NULL,
	bar_interval TEXT NOT NULL,
	symbols TEXT NOT NULL,
	kinds TEXT NOT NULL,
	start_time DATETIME,
	end_time DATETIME,
	params TEXT,
	partial INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	avg_gain_pct REAL NOT NULL,
	net_pnl_pct REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	skipped TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS detections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	kind TEXT NOT NULL,
	bar_index INTEGER NOT NULL,
	time DATETIME NOT NULL,
	price REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL,
	target_price REAL,
	exit_price REAL,
	pnl_pct REAL,
	evidence TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	kind TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_index INTEGER NOT NULL,
	exit_index INTEGER NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	target_price REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbol_stats (
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	avg_gain_pct REAL NOT NULL,
	net_pnl_pct REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	PRIMARY KEY (run_id, symbol)
);

CREATE INDEX IF NOT EXISTS idx_detections_run ON detections(run_id, symbol);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, exit_time);
`
