package analytics

import (
	"context"
	"log"
	"sort"
	"time"

	"urlshort/internal/domain"
	"urlshort/internal/store"
)

// summaryHourUTC is the fixed UTC hour at which the nightly rollup runs;
// it is not read from configuration.
const summaryHourUTC = 2

// Summarizer rolls analytics_events up into per-shortCode and global
// daily summaries on a nightly schedule.
type Summarizer struct {
	analyticsStore *store.AnalyticsStore
}

func NewSummarizer(analyticsStore *store.AnalyticsStore) *Summarizer {
	return &Summarizer{analyticsStore: analyticsStore}
}

// Run blocks, firing RollupDate for the prior UTC day at each
// summaryHourUTC boundary, until ctx is cancelled.
func (s *Summarizer) Run(ctx context.Context) {
	for {
		next := nextRunAt(time.Now().UTC())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			target := next.AddDate(0, 0, -1)
			if err := s.RollupDate(ctx, target); err != nil {
				log.Printf("analytics: nightly rollup for %s failed: %v", target.Format("2006-01-02"), err)
			}
		}
	}
}

func nextRunAt(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), summaryHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RollupDate computes and persists the per-shortCode and global daily
// summaries for date's UTC calendar day.
func (s *Summarizer) RollupDate(ctx context.Context, date time.Time) error {
	rows, err := s.analyticsStore.EventsOnDate(ctx, date)
	if err != nil {
		return err
	}

	perCode := make(map[string][]eventRowLike)
	var global []eventRowLike
	for _, r := range rows {
		row := eventRowLike{clickedAt: r.ClickedAt, country: r.CountryCode, referrer: r.Referrer, device: r.DeviceType, browser: r.Browser}
		perCode[r.ShortCode] = append(perCode[r.ShortCode], row)
		global = append(global, row)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	for code, events := range perCode {
		summary := buildDailySummary(code, day, events)
		if err := s.analyticsStore.UpsertDailySummary(ctx, summary); err != nil {
			return err
		}
	}

	globalSummary := buildGlobalSummary(day, global)
	return s.analyticsStore.UpsertGlobalSummary(ctx, globalSummary)
}

// eventRowLike decouples the aggregation logic below from the store
// package's row type.
type eventRowLike struct {
	clickedAt time.Time
	country   string
	referrer  string
	device    string
	browser   string
}

func buildDailySummary(shortCode string, day time.Time, events []eventRowLike) *domain.DailySummary {
	sum := &domain.DailySummary{ShortCode: shortCode, Date: day}
	countries := map[string]int64{}
	referrers := map[string]int64{}
	devices := map[string]int64{}
	browsers := map[string]int64{}

	for _, e := range events {
		sum.TotalClicks++
		hour := e.clickedAt.UTC().Hour()
		sum.HourlyHistogram[hour]++
		if e.country != "" {
			countries[e.country]++
		}
		if e.referrer != "" {
			referrers[e.referrer]++
		}
		if e.device != "" {
			devices[e.device]++
		}
		if e.browser != "" {
			browsers[e.browser]++
		}
	}

	sum.TopCountries = topN(countries, 5)
	sum.TopReferrers = topN(referrers, 5)
	sum.TopDevices = topN(devices, 5)
	sum.TopBrowsers = topN(browsers, 5)
	sum.PeakHour = peakHour(sum.HourlyHistogram)
	return sum
}

func buildGlobalSummary(day time.Time, events []eventRowLike) *domain.GlobalSummary {
	daily := buildDailySummary("", day, events)
	return &domain.GlobalSummary{
		Date:            daily.Date,
		TotalClicks:     daily.TotalClicks,
		TopCountries:    daily.TopCountries,
		TopReferrers:    daily.TopReferrers,
		TopDevices:      daily.TopDevices,
		TopBrowsers:     daily.TopBrowsers,
		HourlyHistogram: daily.HourlyHistogram,
		PeakHour:        daily.PeakHour,
	}
}

func topN(counts map[string]int64, n int) []domain.NamedCount {
	list := make([]domain.NamedCount, 0, len(counts))
	for name, count := range counts {
		list = append(list, domain.NamedCount{Name: name, Count: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func peakHour(histogram [24]int64) int {
	peak := 0
	for h := 1; h < 24; h++ {
		if histogram[h] > histogram[peak] {
			peak = h
		}
	}
	return peak
}
