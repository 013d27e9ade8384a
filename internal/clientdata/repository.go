// Package clientdata provides persistent caching for external collateral the
// feed producers fetch (weather, price histories, candles). Values are stored
// as msgpack blobs with expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// AllCategories lists every cache category for cleanup operations.
var AllCategories = []string{
	CategoryWeather,
	CategoryFlightPrices,
	CategoryCandles,
	CategoryMarketOdds,
}

// Category names used by the producers.
const (
	CategoryWeather      = "weather"
	CategoryFlightPrices = "flight_prices"
	CategoryCandles      = "candles"
	CategoryMarketOdds   = "market_odds"
)

// validCategories is a set for O(1) category validation.
var validCategories = func() map[string]bool {
	m := make(map[string]bool, len(AllCategories))
	for _, c := range AllCategories {
		m[c] = true
	}
	return m
}()

// Repository provides cache operations over cache.db.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func validateCategory(category string) error {
	if !validCategories[category] {
		return fmt.Errorf("invalid cache category: %s", category)
	}
	return nil
}

// Store saves a value with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(category, key string, value interface{}, ttl time.Duration) error {
	if err := validateCategory(category); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	now := time.Now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO client_data (category, key, value, stored_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		category, key, blob, now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", category, key, err)
	}

	return nil
}

// GetIfFresh decodes the value into dest only if it has not expired. Returns
// false when the key is missing or stale. Use Get to fall back to stale data
// when the upstream fetch fails.
func (r *Repository) GetIfFresh(category, key string, dest interface{}) (bool, error) {
	if err := validateCategory(category); err != nil {
		return false, err
	}

	var blob []byte
	err := r.db.QueryRow(
		"SELECT value FROM client_data WHERE category = ? AND key = ? AND expires_at > ?",
		category, key, time.Now().UnixMilli(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", category, key, err)
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", category, key, err)
	}
	return true, nil
}

// Get decodes the value into dest regardless of expiration. Stale data is
// better than no data when the upstream is down. Returns false when the key
// does not exist.
func (r *Repository) Get(category, key string, dest interface{}) (bool, error) {
	if err := validateCategory(category); err != nil {
		return false, err
	}

	var blob []byte
	err := r.db.QueryRow(
		"SELECT value FROM client_data WHERE category = ? AND key = ?",
		category, key,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", category, key, err)
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", category, key, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(category, key string) error {
	if err := validateCategory(category); err != nil {
		return err
	}

	_, err := r.db.Exec("DELETE FROM client_data WHERE category = ? AND key = ?", category, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", category, key, err)
	}
	return nil
}

// DeleteExpired removes all expired entries of one category.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(category string) (int64, error) {
	if err := validateCategory(category); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(
		"DELETE FROM client_data WHERE category = ? AND expires_at < ?",
		category, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired %s entries: %w", category, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", category, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes all expired entries across every category.
// Returns a map of category to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, category := range AllCategories {
		deleted, err := r.DeleteExpired(category)
		if err != nil {
			return results, err
		}
		results[category] = deleted
	}

	return results, nil
}
