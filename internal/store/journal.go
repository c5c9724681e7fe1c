// Package store 维护本地订单流水：已被交易所确认的委托会在此留痕，
// 仅用于审计与历史展示，下单逻辑不会回读其中的数据。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"futures-bot/internal/config"
	"futures-bot/internal/exchange"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS order_journal (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id    TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	order_type  TEXT NOT NULL,
	quantity    REAL NOT NULL,
	price       REAL NOT NULL,
	status      TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_journal_recorded_at ON order_journal(recorded_at);
`

// JournalEntry 为订单流水中的一条记录。
type JournalEntry struct {
	OrderID    string
	Symbol     string
	Side       string
	Type       string
	Quantity   float64
	Price      float64
	Status     string
	RecordedAt time.Time
}

// Journal 基于 SQLite 的订单流水。
type Journal struct {
	db *sql.DB
}

// NewJournal 打开流水库并初始化表结构。
func NewJournal(cfg config.DatabaseConfig) (*Journal, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("打开订单流水库失败: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("设置 SQLite WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("设置 SQLite 同步级别失败: %w", err)
	}

	if _, err := db.Exec(journalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化订单流水表失败: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close 关闭流水库连接。
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record 追加一条订单流水。
func (j *Journal) Record(ctx context.Context, order exchange.Order) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO order_journal (order_id, symbol, side, order_type, quantity, price, status, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Symbol, order.Side, order.Type,
		order.Quantity, order.Price, order.Status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("写入订单流水失败: %w", err)
	}
	return nil
}

// Recent 返回最近 n 条订单流水，按记录时间倒序。
func (j *Journal) Recent(ctx context.Context, n int) ([]JournalEntry, error) {
	if n <= 0 {
		n = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT order_id, symbol, side, order_type, quantity, price, status, recorded_at
		 FROM order_journal ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("查询订单流水失败: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		if err := rows.Scan(
			&entry.OrderID, &entry.Symbol, &entry.Side, &entry.Type,
			&entry.Quantity, &entry.Price, &entry.Status, &entry.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("读取订单流水失败: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历订单流水失败: %w", err)
	}

	return entries, nil
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", path, err)
	}
	return nil
}
