package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/models"
)

type listingsResponse struct {
	Listings []apiListing `json:"listings"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

type apiListing struct {
	ID          flexID          `json:"id"`
	SellerID    flexID          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  flexID          `json:"category_id"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Seller      *apiSeller      `json:"seller"`
	Category    *apiCategory    `json:"category"`
	Photos      []apiPhoto      `json:"photos"`
}

type apiSeller struct {
	ID          flexID `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type apiCategory struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type apiPhoto struct {
	ID        flexID `json:"id"`
	URL       string `json:"url"`
	SortOrder *int   `json:"sort_order"`
}

// FetchActiveListings returns the catalog, keeping only active listings.
func (c *Client) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	var payload listingsResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/listings",
		token:  c.optionalToken(),
		retry:  true,
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	listings := make([]models.Listing, 0, len(payload.Listings))
	for _, l := range payload.Listings {
		if l.Status != models.StatusActive {
			continue
		}
		listings = append(listings, l.toModel())
	}

	c.logger.Debug("fetched listings",
		zap.Int("received", len(payload.Listings)),
		zap.Int("active", len(listings)))

	return listings, nil
}

func (l apiListing) toModel() models.Listing {
	photos := make([]apiPhoto, len(l.Photos))
	copy(photos, l.Photos)
	sort.SliceStable(photos, func(i, j int) bool {
		return sortOrder(photos[i].SortOrder) < sortOrder(photos[j].SortOrder)
	})
	images := make([]string, 0, len(photos))
	for _, p := range photos {
		images = append(images, p.URL)
	}

	out := models.Listing{
		ID:          string(l.ID),
		Title:       l.Title,
		Price:       l.Price,
		Description: l.Description,
		Images:      images,
		SellerID:    string(l.SellerID),
		CreatedAt:   parseTime(l.CreatedAt),
		Status:      l.Status,
	}
	if l.Category != nil {
		out.Category = l.Category.Name
	}
	if l.Seller != nil {
		out.SellerName = l.Seller.DisplayName
		if l.Seller.ID != "" {
			out.SellerID = string(l.Seller.ID)
		}
	}
	return out
}
