package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/rehab360/internal/models"
)

const (
	DefaultLogListLimit = 30
	MaxLogListLimit     = 100
)

var (
	ErrDailyLogNotFound    = errors.New("daily log not found")
	ErrDailyLogLoadFailed  = errors.New("load daily logs failed")
	ErrDailyLogSaveFailed  = errors.New("save daily log failed")
	ErrDailyLogClearFailed = errors.New("clear daily logs failed")
)

type DailyLogRepository interface {
	ListRecentByUser(userID string, limit int) ([]models.DailyLog, error)
	FindByUserAndID(userID string, id string) (models.DailyLog, bool, error)
	Upsert(entry *models.DailyLog) error
	Save(entry *models.DailyLog) error
	DeleteAllByUser(userID string) (int64, error)
}

type LogService struct {
	logs DailyLogRepository
}

func NewLogService(logs DailyLogRepository) *LogService {
	return &LogService{logs: logs}
}

func NormalizeLogListLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogListLimit
	case limit > MaxLogListLimit:
		return MaxLogListLimit
	default:
		return limit
	}
}

func (service *LogService) ListRecent(userID string, limit int) ([]models.DailyLog, error) {
	logs, err := service.logs.ListRecentByUser(userID, NormalizeLogListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDailyLogLoadFailed, err)
	}
	return logs, nil
}

// Upsert stores entry as the caller's record for entry.LogDate. Client ids are
// ignored: a new row gets a fresh uuid and an existing row keeps its own.
func (service *LogService) Upsert(userID string, entry models.DailyLog, now time.Time) (models.DailyLog, error) {
	entry.UserID = userID
	if err := models.ValidateLog(entry); err != nil {
		return models.DailyLog{}, err
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = now.UTC()
	entry.UpdatedAt = now.UTC()
	if err := service.logs.Upsert(&entry); err != nil {
		return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDailyLogSaveFailed, err)
	}
	return entry, nil
}

func (service *LogService) Update(userID string, id string, patch models.LogPatch, now time.Time) (models.DailyLog, error) {
	if err := models.ValidatePatch(patch); err != nil {
		return models.DailyLog{}, err
	}

	existing, found, err := service.logs.FindByUserAndID(userID, id)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDailyLogLoadFailed, err)
	}
	if !found {
		return models.DailyLog{}, ErrDailyLogNotFound
	}
	if patch.LogDate != nil && *patch.LogDate != existing.LogDate {
		return models.DailyLog{}, models.ErrLogDateImmutable
	}

	updated := models.Merge(existing, patch)
	updated.UpdatedAt = now.UTC()
	if err := service.logs.Save(&updated); err != nil {
		return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDailyLogSaveFailed, err)
	}
	return updated, nil
}

func (service *LogService) Clear(userID string) (int64, error) {
	deleted, err := service.logs.DeleteAllByUser(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDailyLogClearFailed, err)
	}
	return deleted, nil
}
