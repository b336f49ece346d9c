package services

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

type dailyLogRepositoryStub struct {
	entries   map[string]models.DailyLog
	lastLimit int
	saveErr   error
}

func newDailyLogRepositoryStub() *dailyLogRepositoryStub {
	return &dailyLogRepositoryStub{entries: make(map[string]models.DailyLog)}
}

func (stub *dailyLogRepositoryStub) ListRecentByUser(userID string, limit int) ([]models.DailyLog, error) {
	stub.lastLimit = limit
	logs := make([]models.DailyLog, 0)
	for _, entry := range stub.entries {
		if entry.UserID == userID {
			logs = append(logs, entry)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].LogDate > logs[j].LogDate })
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (stub *dailyLogRepositoryStub) FindByUserAndID(userID string, id string) (models.DailyLog, bool, error) {
	entry, ok := stub.entries[id]
	if !ok || entry.UserID != userID {
		return models.DailyLog{}, false, nil
	}
	return entry, true, nil
}

func (stub *dailyLogRepositoryStub) Upsert(entry *models.DailyLog) error {
	if stub.saveErr != nil {
		return stub.saveErr
	}
	for id, existing := range stub.entries {
		if existing.UserID == entry.UserID && existing.LogDate == entry.LogDate {
			entry.ID = id
			entry.CreatedAt = existing.CreatedAt
		}
	}
	stub.entries[entry.ID] = *entry
	return nil
}

func (stub *dailyLogRepositoryStub) Save(entry *models.DailyLog) error {
	if stub.saveErr != nil {
		return stub.saveErr
	}
	stub.entries[entry.ID] = *entry
	return nil
}

func (stub *dailyLogRepositoryStub) DeleteAllByUser(userID string) (int64, error) {
	var deleted int64
	for id, entry := range stub.entries {
		if entry.UserID == userID {
			delete(stub.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestNormalizeLogListLimit(t *testing.T) {
	t.Parallel()

	tests := map[int]int{0: 30, -5: 30, 7: 7, 100: 100, 500: 100}
	for input, want := range tests {
		if got := NormalizeLogListLimit(input); got != want {
			t.Fatalf("NormalizeLogListLimit(%d) = %d, want %d", input, got, want)
		}
	}
}

func TestLogServiceUpsertForcesOwnerAndKeepsDurableID(t *testing.T) {
	repo := newDailyLogRepositoryStub()
	service := NewLogService(repo)
	now := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

	first, err := service.Upsert("user-a", models.DailyLog{ID: "temp-1", UserID: "someone-else", LogDate: "2026-03-15", SleepHours: floatPtr(7)}, now)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.UserID != "user-a" {
		t.Fatalf("expected owner user-a, got %q", first.UserID)
	}
	if first.ID == "temp-1" || first.IsTemporary() {
		t.Fatalf("expected server id, got %q", first.ID)
	}

	second, err := service.Upsert("user-a", models.DailyLog{ID: "temp-2", LogDate: "2026-03-15", MoodTag: stringPtr(models.MoodCalm)}, now)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same durable id %q, got %q", first.ID, second.ID)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected one stored row, got %d", len(repo.entries))
	}
}

func TestLogServiceUpsertRejectsInvalidRecords(t *testing.T) {
	service := NewLogService(newDailyLogRepositoryStub())
	now := time.Now()

	tests := []models.DailyLog{
		{LogDate: "15/03/2026"},
		{LogDate: "2026-03-15", SleepQuality: intPtr(101)},
		{LogDate: "2026-03-15", CravingIntensity: intPtr(0)},
		{LogDate: "2026-03-15", CravingTime: stringPtr("25:00")},
		{LogDate: "2026-03-15", MoodTag: stringPtr("ecstatic")},
		{LogDate: "2026-03-15", WaterGlasses: -1},
	}
	for _, entry := range tests {
		if _, err := service.Upsert("user-a", entry, now); !errors.Is(err, models.ErrInvalidLog) {
			t.Fatalf("expected ErrInvalidLog for %+v, got %v", entry, err)
		}
	}
}

func TestLogServiceUpdate(t *testing.T) {
	repo := newDailyLogRepositoryStub()
	service := NewLogService(repo)
	now := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

	stored, err := service.Upsert("user-a", models.DailyLog{LogDate: "2026-03-15", SleepHours: floatPtr(6), Notes: stringPtr("tired")}, now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	updated, err := service.Update("user-a", stored.ID, models.LogPatch{SleepQuality: intPtr(70)}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SleepQuality == nil || *updated.SleepQuality != 70 {
		t.Fatalf("expected sleep_quality 70, got %v", updated.SleepQuality)
	}
	if updated.Notes == nil || *updated.Notes != "tired" || updated.SleepHours == nil {
		t.Fatalf("expected untouched fields to survive, got %+v", updated)
	}

	if _, err := service.Update("user-b", stored.ID, models.LogPatch{SleepQuality: intPtr(70)}, now); !errors.Is(err, ErrDailyLogNotFound) {
		t.Fatalf("expected ErrDailyLogNotFound for foreign user, got %v", err)
	}
	if _, err := service.Update("user-a", stored.ID, models.LogPatch{LogDate: stringPtr("2026-03-14")}, now); !errors.Is(err, models.ErrLogDateImmutable) {
		t.Fatalf("expected ErrLogDateImmutable, got %v", err)
	}

	repo.saveErr = errors.New("locked")
	if _, err := service.Update("user-a", stored.ID, models.LogPatch{WaterGlasses: intPtr(3)}, now); !errors.Is(err, ErrDailyLogSaveFailed) {
		t.Fatalf("expected ErrDailyLogSaveFailed, got %v", err)
	}
}

func TestLogServiceListAndClear(t *testing.T) {
	repo := newDailyLogRepositoryStub()
	service := NewLogService(repo)
	now := time.Now()

	for _, date := range []string{"2026-03-13", "2026-03-15", "2026-03-14"} {
		if _, err := service.Upsert("user-a", models.DailyLog{LogDate: date}, now); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	logs, err := service.ListRecent("user-a", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastLimit != DefaultLogListLimit {
		t.Fatalf("expected default limit, got %d", repo.lastLimit)
	}
	if len(logs) != 3 || logs[0].LogDate != "2026-03-15" {
		t.Fatalf("expected newest first, got %+v", logs)
	}

	deleted, err := service.Clear("user-a")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}
}
