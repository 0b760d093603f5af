package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const StatusActive = "active"

type Listing struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Images      []string        `json:"images"`
	SellerID    string          `json:"seller_id,omitempty"`
	SellerName  string          `json:"seller_name,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	Status      string          `json:"status,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ParsedQuery is the backend's reading of a natural-language search.
type ParsedQuery struct {
	Keywords string           `json:"keywords,omitempty"`
	Category string           `json:"category,omitempty"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
}

type SearchOutcome struct {
	Listings []Listing   `json:"listings"`
	Parsed   ParsedQuery `json:"parsed_params"`
	Message  string      `json:"message,omitempty"`
}

type SearchRecord struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	ResultCount int       `json:"result_count"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CatalogStats struct {
	TotalListings     int             `json:"total_listings"`
	CategoryBreakdown map[string]int  `json:"category_breakdown"`
	MinPrice          decimal.Decimal `json:"min_price"`
	MaxPrice          decimal.Decimal `json:"max_price"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	SnapshotAt        time.Time       `json:"snapshot_at"`
}
