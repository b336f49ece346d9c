package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/terraincognita07/rehab360/internal/models"
)

func intPtr(value int) *int { return &value }

func TestUpsertTwiceOnSameDateKeepsOneRow(t *testing.T) {
	app := newTestApp(t, nil, nil)
	session := app.register(t, "sam@example.com")

	first := models.DailyLog{ID: "temp-abc", LogDate: "2026-03-09", SleepQuality: intPtr(60)}
	status, body := app.do(t, http.MethodPut, "/api/daily-logs", session.Token, first)
	if status != http.StatusOK {
		t.Fatalf("first upsert expected 200, got %d: %s", status, body)
	}
	var stored models.DailyLog
	decodeJSON(t, body, &stored)
	if stored.ID == "" || stored.IsTemporary() {
		t.Fatalf("expected durable id, got %q", stored.ID)
	}
	if stored.UserID != session.UserID {
		t.Fatalf("expected owner %s, got %s", session.UserID, stored.UserID)
	}

	second := models.DailyLog{LogDate: "2026-03-09", UserID: "someone-else", SleepQuality: intPtr(85), CravingIntensity: intPtr(2)}
	status, body = app.do(t, http.MethodPut, "/api/daily-logs", session.Token, second)
	if status != http.StatusOK {
		t.Fatalf("second upsert expected 200, got %d: %s", status, body)
	}
	var updated models.DailyLog
	decodeJSON(t, body, &updated)
	if updated.ID != stored.ID {
		t.Fatalf("expected same row id %s, got %s", stored.ID, updated.ID)
	}

	status, body = app.do(t, http.MethodGet, "/api/daily-logs", session.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list expected 200, got %d", status)
	}
	var logs []models.DailyLog
	decodeJSON(t, body, &logs)
	if len(logs) != 1 {
		t.Fatalf("expected one row, got %d", len(logs))
	}
	if logs[0].SleepQuality == nil || *logs[0].SleepQuality != 85 {
		t.Fatalf("expected latest sleep quality, got %+v", logs[0].SleepQuality)
	}
}

func TestUpsertRejectsOutOfRangeValues(t *testing.T) {
	app := newTestApp(t, nil, nil)
	session := app.register(t, "sam@example.com")

	status, body := app.do(t, http.MethodPut, "/api/daily-logs", session.Token, models.DailyLog{LogDate: "2026-03-09", CravingIntensity: intPtr(12)})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
}

func TestListDailyLogsOrdersNewestFirstWithLimit(t *testing.T) {
	app := newTestApp(t, nil, nil)
	session := app.register(t, "sam@example.com")

	for day := 1; day <= 5; day++ {
		entry := models.DailyLog{LogDate: fmt.Sprintf("2026-03-%02d", day)}
		if status, body := app.do(t, http.MethodPut, "/api/daily-logs", session.Token, entry); status != http.StatusOK {
			t.Fatalf("seed day %d expected 200, got %d: %s", day, status, body)
		}
	}

	status, body := app.do(t, http.MethodGet, "/api/daily-logs?limit=3", session.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list expected 200, got %d", status)
	}
	var logs []models.DailyLog
	decodeJSON(t, body, &logs)
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if logs[0].LogDate != "2026-03-05" || logs[2].LogDate != "2026-03-03" {
		t.Fatalf("unexpected order %s..%s", logs[0].LogDate, logs[2].LogDate)
	}
}

func TestUpdateDailyLogIsOwnerScoped(t *testing.T) {
	app := newTestApp(t, nil, nil)
	owner := app.register(t, "sam@example.com")
	other := app.register(t, "alex@example.com")

	status, body := app.do(t, http.MethodPut, "/api/daily-logs", owner.Token, models.DailyLog{LogDate: "2026-03-09", SleepQuality: intPtr(50)})
	if status != http.StatusOK {
		t.Fatalf("upsert expected 200, got %d: %s", status, body)
	}
	var stored models.DailyLog
	decodeJSON(t, body, &stored)

	patch := models.LogPatch{SleepQuality: intPtr(90)}
	if status, _ := app.do(t, http.MethodPatch, "/api/daily-logs/"+stored.ID, other.Token, patch); status != http.StatusNotFound {
		t.Fatalf("foreign update expected 404, got %d", status)
	}

	moved := "2026-03-01"
	if status, _ := app.do(t, http.MethodPatch, "/api/daily-logs/"+stored.ID, owner.Token, models.LogPatch{LogDate: &moved}); status != http.StatusBadRequest {
		t.Fatalf("log_date change expected 400, got %d", status)
	}

	status, body = app.do(t, http.MethodPatch, "/api/daily-logs/"+stored.ID, owner.Token, patch)
	if status != http.StatusOK {
		t.Fatalf("owner update expected 200, got %d: %s", status, body)
	}
	var updated models.DailyLog
	decodeJSON(t, body, &updated)
	if updated.SleepQuality == nil || *updated.SleepQuality != 90 {
		t.Fatalf("expected updated sleep quality, got %+v", updated.SleepQuality)
	}
}

func TestDeleteDailyLogsOnlyRemovesCallerRows(t *testing.T) {
	app := newTestApp(t, nil, nil)
	owner := app.register(t, "sam@example.com")
	other := app.register(t, "alex@example.com")

	for _, session := range []sessionResponse{owner, other} {
		if status, body := app.do(t, http.MethodPut, "/api/daily-logs", session.Token, models.DailyLog{LogDate: "2026-03-09"}); status != http.StatusOK {
			t.Fatalf("upsert expected 200, got %d: %s", status, body)
		}
	}

	status, body := app.do(t, http.MethodDelete, "/api/daily-logs", owner.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete expected 200, got %d: %s", status, body)
	}
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	decodeJSON(t, body, &deleted)
	if deleted.Deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted.Deleted)
	}

	_, body = app.do(t, http.MethodGet, "/api/daily-logs", other.Token, nil)
	var remaining []models.DailyLog
	decodeJSON(t, body, &remaining)
	if len(remaining) != 1 {
		t.Fatalf("expected other user's row to remain, got %d", len(remaining))
	}
}
