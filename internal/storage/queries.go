package storage

// Database schema queries
const (
	queryCreateListingsTable = `CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		category TEXT,
		description TEXT,
		images TEXT,
		seller_id TEXT,
		seller_name TEXT,
		status TEXT,
		created_at DATETIME,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	queryCreateCategoriesTable = `CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		slug TEXT
	)`

	queryCreateSearchHistoryTable = `CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		mode TEXT NOT NULL,
		result_count INTEGER DEFAULT 0,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	queryCreateSettingsTable = `CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	queryCreateIndexListingsPosition = `CREATE INDEX IF NOT EXISTS idx_listings_position ON listings(position)`
	queryCreateIndexListingsCategory = `CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category)`
	queryCreateIndexHistoryCreated   = `CREATE INDEX IF NOT EXISTS idx_search_history_created ON search_history(created_at)`

	queryDeleteListings = `DELETE FROM listings`

	queryInsertListing = `INSERT INTO listings (id, position, title, price, category, description, images, seller_id, seller_name, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	querySelectListings = `SELECT id, title, price, category, description, images, seller_id, seller_name, status, created_at
		FROM listings ORDER BY position`

	querySelectListing = `SELECT id, title, price, category, description, images, seller_id, seller_name, status, created_at
		FROM listings WHERE id = ?`

	queryDeleteCategories = `DELETE FROM categories`

	queryInsertCategory = `INSERT INTO categories (id, position, name, slug) VALUES (?, ?, ?, ?)`

	querySelectCategories = `SELECT id, name, slug FROM categories ORDER BY position`

	queryInsertSearch = `INSERT INTO search_history (id, query, mode, result_count, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	querySelectSearches = `SELECT id, query, mode, result_count, error, created_at
		FROM search_history ORDER BY created_at DESC, rowid DESC LIMIT ?`

	queryDeleteSearches = `DELETE FROM search_history`

	queryUpsertSetting = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	querySelectSetting = `SELECT value FROM settings WHERE key = ?`

	queryDeleteSetting = `DELETE FROM settings WHERE key = ?`

	queryCountListings   = `SELECT COUNT(*) FROM listings`
	querySelectPrices    = `SELECT price FROM listings`
	queryGroupByCategory = `SELECT COALESCE(NULLIF(category, ''), 'Uncategorized'), COUNT(*) FROM listings GROUP BY 1`
)

const (
	settingAuthToken       = "auth_token"
	settingCatalogSnapshot = "catalog_snapshot_at"
)
