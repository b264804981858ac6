package models

import "time"

// CreateURLResponse is the shorten-endpoint response shape.
type CreateURLResponse struct {
	ShortCode     string     `json:"shortCode"`
	LongURL       string     `json:"longUrl"`
	ShortURL      string     `json:"shortUrl"`
	IsCustomAlias bool       `json:"isCustomAlias"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	WasReused     bool       `json:"wasReused"`
	UserID        *string    `json:"userId,omitempty"`
}

// BulkCreateResponse reports one outcome per input, never failing the
// whole batch because one item failed.
type BulkCreateResponse struct {
	Results []BulkResultItem `json:"results"`
}

type BulkResultItem struct {
	URL    string             `json:"url"`
	Result *CreateURLResponse `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// ResolveResponse is the GET /api/v1/url/resolve/{shortCode} metadata
// response.
type ResolveResponse struct {
	ShortCode      string     `json:"shortCode"`
	LongURL        string     `json:"longUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	AccessCount    int64      `json:"accessCount"`
	IsCustomAlias  bool       `json:"isCustomAlias"`
}

// ErrorResponse is the uniform JSON error body for non-2xx responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
