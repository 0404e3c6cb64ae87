package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"health-rag/internal/config"
)

// Exchange is one answered question: what the user asked, which corpus
// snippet was retrieved, and what the inference API replied. Append-only.
type Exchange struct {
	bun.BaseModel `bun:"table:exchanges,alias:e"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Question      string    `bun:"question,notnull"`
	Snippet       string    `bun:"snippet,notnull"`
	Answer        string    `bun:"answer,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Exchange)(nil)).IfNotExists().Exec(ctx)
	return err
}

func StoreExchange(ctx context.Context, db *bun.DB, question, snippet, answer string) error {
	exchange := &Exchange{
		Question: question,
		Snippet:  snippet,
		Answer:   answer,
	}
	_, err := db.NewInsert().Model(exchange).Exec(ctx)
	return err
}

func RecentExchanges(ctx context.Context, db *bun.DB, limit int) ([]Exchange, error) {
	var exchanges []Exchange
	err := db.NewSelect().
		Model(&exchanges).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return exchanges, err
}

// drop table exchanges

func DropExchanges(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Exchange)(nil)).IfExists().Exec(ctx)
	return err
}
