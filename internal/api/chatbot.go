package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jasperwreed/campus-market/internal/models"
)

// ErrMissingToken is returned when an authenticated call has no bearer token.
var ErrMissingToken = errors.New("authentication token required")

type chatbotRequest struct {
	Query string `json:"query"`
}

type chatbotResponse struct {
	Query        string           `json:"query"`
	ParsedParams chatbotParams    `json:"parsed_params"`
	Listings     []chatbotListing `json:"listings"`
	Count        int              `json:"count"`
	Message      string           `json:"message"`
}

type chatbotParams struct {
	Keywords *string          `json:"keywords"`
	Category *string          `json:"category"`
	MinPrice *decimal.Decimal `json:"min_price"`
	MaxPrice *decimal.Decimal `json:"max_price"`
}

type chatbotListing struct {
	ID          flexID          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    *apiCategory    `json:"category"`
	Seller      *apiSeller      `json:"seller"`
	Photo       *string         `json:"photo"`
	CreatedAt   string          `json:"created_at"`
}

// Search sends a natural-language query to the backend's AI search endpoint.
func (c *Client) Search(ctx context.Context, query, token string) (models.SearchOutcome, error) {
	if strings.TrimSpace(token) == "" {
		return models.SearchOutcome{}, ErrMissingToken
	}

	var payload chatbotResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chatbot/query",
		body:   chatbotRequest{Query: query},
		token:  token,
	}, &payload)
	if err != nil {
		return models.SearchOutcome{}, err
	}

	out := models.SearchOutcome{
		Listings: make([]models.Listing, 0, len(payload.Listings)),
		Parsed:   payload.ParsedParams.toModel(),
		Message:  payload.Message,
	}
	for _, l := range payload.Listings {
		out.Listings = append(out.Listings, l.toModel())
	}
	return out, nil
}

func (p chatbotParams) toModel() models.ParsedQuery {
	var q models.ParsedQuery
	if p.Keywords != nil {
		q.Keywords = *p.Keywords
	}
	if p.Category != nil {
		q.Category = *p.Category
	}
	q.MinPrice = p.MinPrice
	q.MaxPrice = p.MaxPrice
	return q
}

func (l chatbotListing) toModel() models.Listing {
	out := models.Listing{
		ID:          string(l.ID),
		Title:       l.Title,
		Price:       l.Price,
		Description: l.Description,
		Images:      []string{},
		CreatedAt:   parseTime(l.CreatedAt),
		Status:      models.StatusActive,
	}
	if l.Category != nil {
		out.Category = l.Category.Name
	}
	if l.Seller != nil {
		out.SellerID = string(l.Seller.ID)
		out.SellerName = l.Seller.DisplayName
	}
	if l.Photo != nil && *l.Photo != "" {
		out.Images = append(out.Images, *l.Photo)
	}
	return out
}
