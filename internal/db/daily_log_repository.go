package db

import (
	"github.com/terraincognita07/rehab360/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dailyLogDataColumns are overwritten when an upsert hits an existing (user_id, log_date) row.
var dailyLogDataColumns = []string{
	"sleep_hours",
	"sleep_quality",
	"craving_intensity",
	"craving_time",
	"craving_trigger",
	"mood_tag",
	"water_glasses",
	"exercise_minutes",
	"meditation_minutes",
	"took_meds",
	"notes",
	"updated_at",
}

type DailyLogRepository struct {
	database *gorm.DB
}

func NewDailyLogRepository(database *gorm.DB) *DailyLogRepository {
	return &DailyLogRepository{database: database}
}

func (repo *DailyLogRepository) ListRecentByUser(userID string, limit int) ([]models.DailyLog, error) {
	logs := make([]models.DailyLog, 0, limit)
	if err := repo.database.
		Where("user_id = ?", userID).
		Order("log_date DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (repo *DailyLogRepository) FindByUserAndID(userID string, id string) (models.DailyLog, bool, error) {
	entry := models.DailyLog{}
	result := repo.database.Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&entry)
	if result.Error != nil {
		return models.DailyLog{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.DailyLog{}, false, nil
	}
	return entry, true, nil
}

func (repo *DailyLogRepository) FindByUserAndDate(userID string, logDate string) (models.DailyLog, bool, error) {
	entry := models.DailyLog{}
	result := repo.database.Where("user_id = ? AND log_date = ?", userID, logDate).Limit(1).Find(&entry)
	if result.Error != nil {
		return models.DailyLog{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.DailyLog{}, false, nil
	}
	return entry, true, nil
}

// Upsert inserts entry or overwrites the data columns of the row already
// stored for its (user_id, log_date). entry is reloaded from the stored row,
// so its ID is the durable one even when the insert lost the conflict.
func (repo *DailyLogRepository) Upsert(entry *models.DailyLog) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
			DoUpdates: clause.AssignmentColumns(dailyLogDataColumns),
		}).Create(entry).Error; err != nil {
			return err
		}
		stored, found, err := NewDailyLogRepository(tx).FindByUserAndDate(entry.UserID, entry.LogDate)
		if err != nil {
			return err
		}
		if !found {
			return gorm.ErrRecordNotFound
		}
		*entry = stored
		return nil
	})
}

func (repo *DailyLogRepository) Save(entry *models.DailyLog) error {
	return repo.database.Save(entry).Error
}

func (repo *DailyLogRepository) DeleteAllByUser(userID string) (int64, error) {
	result := repo.database.Where("user_id = ?", userID).Delete(&models.DailyLog{})
	return result.RowsAffected, result.Error
}
