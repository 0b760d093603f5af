package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jasperwreed/campus-market/internal/models"
)

var (
	// ErrNoSnapshot is returned when the catalog has never been cached.
	ErrNoSnapshot = errors.New("no cached catalog, run once while online")
	ErrNotFound   = errors.New("listing not found")
)

type SQLiteStore struct {
	writeDB *sql.DB // Single connection for writes
	readDB  *sql.DB // Pool of connections for reads
	dbPath  string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	// Not opened with ?mode=ro: the file may not exist until the write side creates it.
	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to open read database: %w", err)
	}
	config := DefaultConfig()
	readDB.SetMaxOpenConns(config.MaxOpenConns)
	readDB.SetMaxIdleConns(config.MaxIdleConns)
	readDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &SQLiteStore{
		writeDB: writeDB,
		readDB:  readDB,
		dbPath:  dbPath,
	}

	if err := store.initializeDB(config); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := store.createTables(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Path() string { return s.dbPath }

func (s *SQLiteStore) initializeDB(config *Config) error {
	for _, pragma := range config.pragmas() {
		if _, err := s.writeDB.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		queryCreateListingsTable,
		queryCreateCategoriesTable,
		queryCreateSearchHistoryTable,
		queryCreateSettingsTable,
		queryCreateIndexListingsPosition,
		queryCreateIndexListingsCategory,
		queryCreateIndexHistoryCreated,
	}

	for _, query := range queries {
		if _, err := s.writeDB.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// SaveCatalog replaces the cached catalog with listings, keeping their order.
func (s *SQLiteStore) SaveCatalog(listings []models.Listing) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queryDeleteListings); err != nil {
		return fmt.Errorf("failed to clear listings: %w", err)
	}

	stmt, err := tx.Prepare(queryInsertListing)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range listings {
		imagesJSON, _ := json.Marshal(l.Images)
		var createdAt sql.NullTime
		if l.CreatedAt != nil {
			createdAt = sql.NullTime{Time: *l.CreatedAt, Valid: true}
		}
		if _, err := stmt.Exec(
			l.ID, i, l.Title, l.Price.String(), l.Category, l.Description,
			string(imagesJSON), l.SellerID, l.SellerName, l.Status, createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert listing %s: %w", l.ID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(queryUpsertSetting, settingCatalogSnapshot, now); err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	return tx.Commit()
}

// LoadCatalog returns the cached catalog and when it was saved.
func (s *SQLiteStore) LoadCatalog() ([]models.Listing, time.Time, error) {
	at, ok, err := s.snapshotTime()
	if err != nil {
		return nil, time.Time{}, err
	}
	if !ok {
		return nil, time.Time{}, ErrNoSnapshot
	}

	rows, err := s.readDB.Query(querySelectListings)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, time.Time{}, err
		}
		listings = append(listings, *l)
	}

	return listings, at, rows.Err()
}

func (s *SQLiteStore) GetListing(id string) (*models.Listing, error) {
	l, err := scanListing(s.readDB.QueryRow(querySelectListing, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return l, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var (
		l                                 models.Listing
		price                             string
		category, description, imagesJSON sql.NullString
		sellerID, sellerName, status      sql.NullString
		createdAt                         sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Title, &price, &category, &description, &imagesJSON,
		&sellerID, &sellerName, &status, &createdAt); err != nil {
		return nil, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("listing %s has invalid price %q: %w", l.ID, price, err)
	}
	l.Price = p
	l.Category = category.String
	l.Description = description.String
	l.SellerID = sellerID.String
	l.SellerName = sellerName.String
	l.Status = status.String
	if createdAt.Valid {
		t := createdAt.Time
		l.CreatedAt = &t
	}
	l.Images = []string{}
	if imagesJSON.String != "" {
		json.Unmarshal([]byte(imagesJSON.String), &l.Images)
	}
	return &l, nil
}

func (s *SQLiteStore) SaveCategories(categories []models.Category) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queryDeleteCategories); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	for i, c := range categories {
		if _, err := tx.Exec(queryInsertCategory, c.ID, i, c.Name, c.Slug); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadCategories() ([]models.Category, error) {
	rows, err := s.readDB.Query(querySelectCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		var slug sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &slug); err != nil {
			return nil, err
		}
		c.Slug = slug.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) RecordSearch(rec models.SearchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := s.writeDB.Exec(queryInsertSearch,
		rec.ID, rec.Query, rec.Mode, rec.ResultCount, errText, rec.CreatedAt.UTC())
	return err
}

// ListSearches returns the most recent searches first.
func (s *SQLiteStore) ListSearches(limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.readDB.Query(querySelectSearches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var rec models.SearchRecord
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Mode, &rec.ResultCount, &errText, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ClearSearches() error {
	_, err := s.writeDB.Exec(queryDeleteSearches)
	return err
}

func (s *SQLiteStore) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	_, err := s.writeDB.Exec(queryUpsertSetting, settingAuthToken, token)
	return err
}

// Token reports the stored bearer token. Read errors count as no token.
func (s *SQLiteStore) Token() (string, bool) {
	value, ok, err := s.setting(settingAuthToken)
	if err != nil || !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) ClearToken() error {
	_, err := s.writeDB.Exec(queryDeleteSetting, settingAuthToken)
	return err
}

func (s *SQLiteStore) GetStats() (*models.CatalogStats, error) {
	at, ok, err := s.snapshotTime()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSnapshot
	}

	stats := &models.CatalogStats{
		CategoryBreakdown: make(map[string]int),
		SnapshotAt:        at,
	}

	if err := s.readDB.QueryRow(queryCountListings).Scan(&stats.TotalListings); err != nil {
		return nil, err
	}

	rows, err := s.readDB.Query(queryGroupByCategory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err == nil {
			stats.CategoryBreakdown[category] = count
		}
	}

	// Prices are stored as text so aggregation happens in decimal here.
	priceRows, err := s.readDB.Query(querySelectPrices)
	if err != nil {
		return nil, err
	}
	defer priceRows.Close()

	sum := decimal.Zero
	n := 0
	for priceRows.Next() {
		var raw string
		if err := priceRows.Scan(&raw); err != nil {
			return nil, err
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		if n == 0 || p.LessThan(stats.MinPrice) {
			stats.MinPrice = p
		}
		if n == 0 || p.GreaterThan(stats.MaxPrice) {
			stats.MaxPrice = p
		}
		sum = sum.Add(p)
		n++
	}
	if n > 0 {
		stats.AveragePrice = sum.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	return stats, priceRows.Err()
}

func (s *SQLiteStore) setting(key string) (string, bool, error) {
	var value string
	err := s.readDB.QueryRow(querySelectSetting, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) snapshotTime() (time.Time, bool, error) {
	raw, ok, err := s.setting(settingCatalogSnapshot)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid snapshot time %q: %w", raw, err)
	}
	return at, true, nil
}

func (s *SQLiteStore) Close() error {
	var errs []error

	// Run PRAGMA optimize before closing for better long-term performance
	if _, err := s.writeDB.Exec("PRAGMA optimize"); err != nil {
		errs = append(errs, fmt.Errorf("failed to optimize: %w", err))
	}

	if err := s.readDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close read db: %w", err))
	}

	if err := s.writeDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close write db: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}
