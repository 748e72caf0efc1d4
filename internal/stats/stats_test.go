package stats

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&DailyStat{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestRecordExchange_AccumulatesPerDay(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	day := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	if err := repo.RecordExchange(ctx, day, 120, 1.5); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := repo.RecordExchange(ctx, day.Add(3*time.Hour), 80, 0.5); err != nil {
		t.Fatalf("second record: %v", err)
	}

	s, err := repo.Day(ctx, "2025-06-15")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if s.ExchangeCount != 2 {
		t.Fatalf("exchange count: want 2, got %d", s.ExchangeCount)
	}
	if s.TokensUsed != 200 {
		t.Fatalf("tokens: want 200, got %d", s.TokensUsed)
	}
	if s.TotalLatency != 2.0 {
		t.Fatalf("latency: want 2.0, got %f", s.TotalLatency)
	}
}

func TestRecordExchange_SeparatesDays(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.RecordExchange(ctx, time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC), 10, 0.1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordExchange(ctx, time.Date(2025, 6, 16, 1, 0, 0, 0, time.UTC), 20, 0.2); err != nil {
		t.Fatalf("record: %v", err)
	}

	first, err := repo.Day(ctx, "2025-06-15")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	second, err := repo.Day(ctx, "2025-06-16")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if first.ExchangeCount != 1 || second.ExchangeCount != 1 {
		t.Fatalf("want one exchange per day, got %d and %d", first.ExchangeCount, second.ExchangeCount)
	}

	empty, err := repo.Day(ctx, "2025-06-17")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if empty.ExchangeCount != 0 {
		t.Fatalf("absent day must read zero, got %d", empty.ExchangeCount)
	}
}
