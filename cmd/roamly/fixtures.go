package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	domaincatalog "roamly/internal/domain/catalog"
	"roamly/internal/domain/shared/money"
)

type itemFixture struct {
	ID        string `json:"id"`
	Variant   string `json:"variant"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	BasePrice int64  `json:"base_price"`
	Currency  string `json:"currency"`

	CleaningFee   int64    `json:"cleaning_fee"`
	ServiceFeeBps int64    `json:"service_fee_bps"`
	BlockedDates  []string `json:"blocked_dates"`

	TicketCapacity int    `json:"ticket_capacity"`
	DateStart      string `json:"date_start"`
	DateEnd        string `json:"date_end"`

	AvailableWeekdays []int `json:"available_weekdays"`
}

func loadCatalogFixtures(ctx context.Context, path string, seed func(context.Context, *domaincatalog.Item) error, logger *slog.Logger) error {
	if seed == nil {
		return nil
	}
	if path == "" {
		path = defaultFixturesPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("catalog fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("catalog fixtures file empty", "path", path)
		return nil
	}

	var fixtures []itemFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	loaded := 0
	for _, fx := range fixtures {
		item, err := fx.toItem()
		if err != nil {
			logger.Warn("catalog fixture skipped", "id", fx.ID, "error", err)
			continue
		}
		if err := seed(ctx, item); err != nil {
			logger.Warn("catalog fixture seed failed", "id", fx.ID, "error", err)
			continue
		}
		loaded++
	}
	if loaded > 0 {
		logger.Info("catalog fixtures loaded", "count", loaded, "path", path)
	}
	return nil
}

func (fx itemFixture) toItem() (*domaincatalog.Item, error) {
	variant, err := domaincatalog.ParseVariant(fx.Variant)
	if err != nil {
		return nil, err
	}
	item := &domaincatalog.Item{
		Ref:       domaincatalog.ItemRef{ID: domaincatalog.ItemID(fx.ID), Variant: variant},
		Title:     fx.Title,
		Location:  fx.Location,
		BasePrice: money.Money{Amount: fx.BasePrice, Currency: fx.Currency},
	}
	switch variant {
	case domaincatalog.VariantStay:
		blocked := make([]time.Time, 0, len(fx.BlockedDates))
		for _, raw := range fx.BlockedDates {
			d, err := parseFixtureDate(raw)
			if err != nil {
				return nil, err
			}
			blocked = append(blocked, d)
		}
		item.Stay = &domaincatalog.StayDetails{
			CleaningFee:   money.Money{Amount: fx.CleaningFee, Currency: fx.Currency},
			ServiceFeeBps: fx.ServiceFeeBps,
			BlockedDates:  blocked,
		}
	case domaincatalog.VariantEvent:
		start, err := parseFixtureDate(fx.DateStart)
		if err != nil {
			return nil, err
		}
		end, err := parseFixtureDate(fx.DateEnd)
		if err != nil {
			return nil, err
		}
		item.Event = &domaincatalog.EventDetails{
			TicketCapacity: fx.TicketCapacity,
			DateStart:      start,
			DateEnd:        end,
		}
	case domaincatalog.VariantExperience:
		weekdays := make([]time.Weekday, 0, len(fx.AvailableWeekdays))
		for _, w := range fx.AvailableWeekdays {
			weekdays = append(weekdays, time.Weekday(w))
		}
		item.Experience = &domaincatalog.ExperienceDetails{AvailableWeekdays: weekdays}
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func parseFixtureDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "items.json"),
		filepath.Join("deploy", "data", "items.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
