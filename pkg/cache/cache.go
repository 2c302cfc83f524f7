package cache

import (
	"database/sql"
	"encoding/json"
	"time"

	"shopwise/pkg/logger"
	"shopwise/pkg/models"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS offers (
	platform   TEXT    NOT NULL,
	product_id TEXT    NOT NULL,
	data       TEXT    NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (platform, product_id)
)`

type row struct {
	Data      string `db:"data"`
	FetchedAt int64  `db:"fetched_at"`
}

// Cache keeps the live offers each platform returned for a product, keyed
// by (platform, product id). Entries older than the TTL are ignored by Get
// and removed by Purge.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Get(platform models.Platform, productID string) ([]models.Offer, bool) {
	var r row
	err := c.db.Get(&r,
		`SELECT data, fetched_at FROM offers WHERE platform = ? AND product_id = ?`,
		string(platform), productID,
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L().Warnw("cache read failed", "platform", platform, "product", productID, "error", err)
		}
		return nil, false
	}

	if c.now().Sub(time.UnixMilli(r.FetchedAt)) > c.ttl {
		return nil, false
	}

	var offers []models.Offer
	if err := json.Unmarshal([]byte(r.Data), &offers); err != nil {
		logger.L().Warnw("cache entry unreadable", "platform", platform, "product", productID, "error", err)
		return nil, false
	}

	logger.Dedup("Cache hit for %s/%s", platform, productID)
	return offers, true
}

func (c *Cache) Set(platform models.Platform, productID string, offers []models.Offer) {
	data, err := json.Marshal(offers)
	if err != nil {
		logger.L().Warnw("cache encode failed", "platform", platform, "product", productID, "error", err)
		return
	}

	_, err = c.db.Exec(
		`INSERT INTO offers (platform, product_id, data, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(platform, product_id)
		 DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`,
		string(platform), productID, string(data), c.now().UnixMilli(),
	)
	if err != nil {
		logger.L().Warnw("cache write failed", "platform", platform, "product", productID, "error", err)
	}
}

// Purge deletes expired entries and reports how many were removed.
func (c *Cache) Purge() (int64, error) {
	cutoff := c.now().Add(-c.ttl).UnixMilli()
	res, err := c.db.Exec(`DELETE FROM offers WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge")
	}
	return res.RowsAffected()
}

func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.Get(&n, `SELECT COUNT(*) FROM offers`)
	return n, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
