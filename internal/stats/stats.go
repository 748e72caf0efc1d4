package stats

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyStat aggregates chat usage per calendar day (UTC).
type DailyStat struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	Day           string    `gorm:"type:varchar(10);uniqueIndex;not null"` // YYYY-MM-DD
	ExchangeCount int64     `gorm:"not null;default:0"`
	TokensUsed    int64     `gorm:"not null;default:0"`
	TotalLatency  float64   `gorm:"not null;default:0"` // seconds
	UpdatedAt     time.Time
}

func (DailyStat) TableName() string { return "chat_daily_stats" }

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// RecordExchange folds one exchange into its day row. The upsert keeps the
// worker safe to run with several consumers.
func (r *Repo) RecordExchange(ctx context.Context, askedAt time.Time, tokens int, latency float64) error {
	day := askedAt.UTC().Format("2006-01-02")
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{
				"exchange_count": gorm.Expr("exchange_count + 1"),
				"tokens_used":    gorm.Expr("tokens_used + ?", tokens),
				"total_latency":  gorm.Expr("total_latency + ?", latency),
				"updated_at":     time.Now(),
			}),
		}).
		Create(&DailyStat{
			Day:           day,
			ExchangeCount: 1,
			TokensUsed:    int64(tokens),
			TotalLatency:  latency,
		}).Error
}

// Day returns the aggregate row for one day, zeroed when absent.
func (r *Repo) Day(ctx context.Context, day string) (DailyStat, error) {
	var s DailyStat
	err := r.db.WithContext(ctx).Where("day = ?", day).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return DailyStat{Day: day}, nil
	}
	return s, err
}
