package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsEvent is a single raw click record.
type AnalyticsEvent struct {
	EventID     uuid.UUID `json:"eventId"`
	ShortCode   string    `json:"shortCode"`
	ClickedAt   time.Time `json:"clickedAt"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
	Referrer    string    `json:"referrer"`
	CountryCode string    `json:"countryCode"`
	Region      string    `json:"region"`
	City        string    `json:"city"`
	DeviceType  string    `json:"deviceType"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
}

// HourBucket is one slot of a 24-bucket hourly click distribution.
type HourBucket struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// NamedCount pairs a dimension value (country, referrer, device, browser)
// with its click count, used for the summaries' top-N lists.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DailySummary is the per-shortCode, per-day roll-up of raw events.
type DailySummary struct {
	ShortCode      string
	Date           time.Time
	TotalClicks    int64
	TopCountries   []NamedCount
	TopReferrers   []NamedCount
	TopDevices     []NamedCount
	TopBrowsers    []NamedCount
	HourlyHistogram [24]int64
	PeakHour       int
}

// GlobalSummary is the service-wide per-day roll-up across all short codes.
type GlobalSummary struct {
	Date            time.Time
	TotalClicks     int64
	TopCountries    []NamedCount
	TopReferrers    []NamedCount
	TopDevices      []NamedCount
	TopBrowsers     []NamedCount
	HourlyHistogram [24]int64
	PeakHour        int
}
