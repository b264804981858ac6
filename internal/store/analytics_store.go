package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"urlshort/internal/domain"
)

// AnalyticsStore persists click events and the nightly rollup summaries.
type AnalyticsStore struct {
	db    *sql.DB
	retry RetryConfig
}

func NewAnalyticsStore(db *sql.DB, retryCfg RetryConfig) *AnalyticsStore {
	return &AnalyticsStore{db: db, retry: retryCfg}
}

func (s *AnalyticsStore) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	return (&URLStore{db: s.db, retry: s.retry}).withRetry(ctx, op)
}

// InsertBatch writes a batch of analytics events in a single
// transaction, the shape both the bus consumer and the direct fallback
// writer share.
func (s *AnalyticsStore) InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO analytics_events
				(event_id, short_code, clicked_at, ip_address, user_agent, referrer,
				 country_code, region, city, device_type, browser, os)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (event_id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			if _, err := stmt.ExecContext(ctx, e.EventID, e.ShortCode, e.ClickedAt, e.IPAddress,
				e.UserAgent, e.Referrer, e.CountryCode, e.Region, e.City, e.DeviceType, e.Browser, e.OS); err != nil {
				return fmt.Errorf("insert event %s: %w", e.EventID, err)
			}
		}
		return tx.Commit()
	})
}

// eventRow mirrors one row read back for rollup aggregation.
type eventRow struct {
	ShortCode   string
	ClickedAt   time.Time
	CountryCode string
	Referrer    string
	DeviceType  string
	Browser     string
}

// EventsOnDate returns every event clicked on the UTC calendar day of
// date, used by the nightly summarizer to build DailySummary rows.
func (s *AnalyticsStore) EventsOnDate(ctx context.Context, date time.Time) ([]eventRow, error) {
	var rows []eventRow
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows = nil
		r, err := s.db.QueryContext(ctx, `
			SELECT short_code, clicked_at, country_code, referrer, device_type, browser
			FROM analytics_events
			WHERE clicked_at >= $1 AND clicked_at < $2
		`, start, end)
		if err != nil {
			return fmt.Errorf("query events on date: %w", err)
		}
		defer r.Close()
		for r.Next() {
			var row eventRow
			if err := r.Scan(&row.ShortCode, &row.ClickedAt, &row.CountryCode, &row.Referrer, &row.DeviceType, &row.Browser); err != nil {
				return fmt.Errorf("scan event row: %w", err)
			}
			rows = append(rows, row)
		}
		return r.Err()
	})
	return rows, err
}

// UpsertDailySummary writes one per-shortCode daily rollup.
func (s *AnalyticsStore) UpsertDailySummary(ctx context.Context, sum *domain.DailySummary) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO analytics_daily_summaries
				(short_code, summary_date, total_clicks, top_countries, top_referrers,
				 top_devices, top_browsers, hourly_histogram, peak_hour)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (short_code, summary_date) DO UPDATE SET
				total_clicks = EXCLUDED.total_clicks,
				top_countries = EXCLUDED.top_countries,
				top_referrers = EXCLUDED.top_referrers,
				top_devices = EXCLUDED.top_devices,
				top_browsers = EXCLUDED.top_browsers,
				hourly_histogram = EXCLUDED.hourly_histogram,
				peak_hour = EXCLUDED.peak_hour
		`, sum.ShortCode, sum.Date, sum.TotalClicks,
			namedCountsJSON(sum.TopCountries), namedCountsJSON(sum.TopReferrers),
			namedCountsJSON(sum.TopDevices), namedCountsJSON(sum.TopBrowsers),
			histogramArray(sum.HourlyHistogram), sum.PeakHour)
		if err != nil {
			return fmt.Errorf("upsert daily summary: %w", err)
		}
		return nil
	})
}

// UpsertGlobalSummary writes the cross-mapping rollup for a date.
func (s *AnalyticsStore) UpsertGlobalSummary(ctx context.Context, sum *domain.GlobalSummary) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO analytics_global_summaries
				(summary_date, total_clicks, top_countries, top_referrers,
				 top_devices, top_browsers, hourly_histogram, peak_hour)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (summary_date) DO UPDATE SET
				total_clicks = EXCLUDED.total_clicks,
				top_countries = EXCLUDED.top_countries,
				top_referrers = EXCLUDED.top_referrers,
				top_devices = EXCLUDED.top_devices,
				top_browsers = EXCLUDED.top_browsers,
				hourly_histogram = EXCLUDED.hourly_histogram,
				peak_hour = EXCLUDED.peak_hour
		`, sum.Date, sum.TotalClicks,
			namedCountsJSON(sum.TopCountries), namedCountsJSON(sum.TopReferrers),
			namedCountsJSON(sum.TopDevices), namedCountsJSON(sum.TopBrowsers),
			histogramArray(sum.HourlyHistogram), sum.PeakHour)
		if err != nil {
			return fmt.Errorf("upsert global summary: %w", err)
		}
		return nil
	})
}
