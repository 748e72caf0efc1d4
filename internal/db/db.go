package db

import (
	"log"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/dhlee-dev/portfolio-api/internal/chat"
	"github.com/dhlee-dev/portfolio-api/internal/portfolio"
	"github.com/dhlee-dev/portfolio-api/internal/stats"
)

// Connect opens the database and runs migrations. MySQL DSNs look like
// user:pass@tcp(host:port)/name; anything else is treated as a sqlite path.
func Connect(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "@tcp(") {
		dialector = mysql.Open(dsn)
	} else {
		dialector = gormsqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(
		&chat.Session{},
		&chat.Conversation{},
		&portfolio.Profile{},
		&portfolio.Skill{},
		&portfolio.Experience{},
		&portfolio.Education{},
		&stats.DailyStat{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	return gdb
}
