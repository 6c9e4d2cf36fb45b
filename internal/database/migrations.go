package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/hall-booking/internal/models"
)

// DefaultSettings are seeded on first start. Existing rows are left alone so
// operators can change prices without a deploy.
var DefaultSettings = map[string]string{
	"hourly_rate": "1000",
	"start_hour":  "9",
	"end_hour":    "23",
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Booking{},
		&models.Slot{},
		&models.BlockedSlot{},
		&models.HourLock{},
		&models.Setting{},
	)
	if err != nil {
		return err
	}

	rows := make([]models.Setting, 0, len(DefaultSettings))
	for k, v := range DefaultSettings {
		rows = append(rows, models.Setting{Key: k, Value: v})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
