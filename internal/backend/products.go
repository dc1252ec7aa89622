package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/clinicshop/storefront/internal/domain"
)

type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// Product is a catalog entry as the store API returns it. Category is either
// an id or a populated object depending on the endpoint.
type Product struct {
	ID             string          `json:"_id"`
	Slug           string          `json:"slug,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          float64         `json:"price"`
	Stock          int             `json:"stock"`
	TrackInventory bool            `json:"trackInventory"`
	AllowBackorder bool            `json:"allowBackorder"`
	Images         []string        `json:"images,omitempty"`
	Category       json.RawMessage `json:"category,omitempty"`
	IsActive       *bool           `json:"isActive,omitempty"`
}

func (p Product) CategoryName() string {
	raw := bytes.TrimSpace(p.Category)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var c Category
	if err := json.Unmarshal(raw, &c); err == nil {
		if c.Name != "" {
			return c.Name
		}
		return c.ID
	}
	return ""
}

// ToDomain returns the snapshot a cart line keeps for this product.
func (p Product) ToDomain() domain.Product {
	out := domain.Product{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		Price:          p.Price,
		Stock:          p.Stock,
		TrackInventory: p.TrackInventory,
		AllowBackorder: p.AllowBackorder,
		Category:       p.CategoryName(),
	}
	if len(p.Images) > 0 {
		out.ImageURL = p.Images[0]
	}
	return out
}

type ProductQuery struct {
	Category string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ProductPage struct {
	Products   []Product   `json:"products"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/products",
		query:  q.values(),
	}, &raw)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return page, nil
	}
	// older API versions return a bare array
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &page.Products); err != nil {
			return nil, &APIError{StatusCode: http.StatusBadGateway, Detail: "unexpected product list: " + err.Error()}
		}
		return page, nil
	}
	if err := json.Unmarshal(raw, page); err != nil {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Detail: "unexpected product list: " + err.Error()}
	}
	return page, nil
}

// GetProduct accepts either the product id or its slug.
func (c *Client) GetProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	var p Product
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/products/" + url.PathEscape(idOrSlug),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/categories",
	}, &categories)
	if err != nil {
		return nil, err
	}
	return categories, nil
}
