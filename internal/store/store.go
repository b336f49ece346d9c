// Package store owns the client-side list of daily logs. Mutations apply
// optimistically, persist to the local blob and, with a session, sync to the
// remote table; a failed sync rolls the change back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/rehab360/internal/models"
	"go.uber.org/zap"
)

const RefetchLimit = 30

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNoSession      = errors.New("no active session")
)

type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Remote is the server-side record table.
type Remote interface {
	ListRecent(ctx context.Context, token string, limit int) ([]models.DailyLog, error)
	Upsert(ctx context.Context, token string, entry models.DailyLog) (models.DailyLog, error)
	Update(ctx context.Context, token string, id string, patch models.LogPatch) (models.DailyLog, error)
	DeleteAll(ctx context.Context, token string) error
}

type Options struct {
	Blob         BlobStore
	Remote       Remote
	Now          func() time.Time
	Location     *time.Location
	SeedDemoData bool
	Random       *rand.Rand
	Logger       *zap.Logger
}

type Store struct {
	blob         BlobStore
	remote       Remote
	now          func() time.Time
	location     *time.Location
	seedDemoData bool
	random       *rand.Rand
	logger       *zap.Logger

	mu      sync.RWMutex
	logs    []models.DailyLog
	session *Session

	dateLocks *keyedMutex

	subscribersMu    sync.Mutex
	subscribers      map[int]func([]models.DailyLog)
	nextSubscriberID int
}

func New(options Options) *Store {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	location := options.Location
	if location == nil {
		location = time.Local
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		blob:         options.Blob,
		remote:       options.Remote,
		now:          now,
		location:     location,
		seedDemoData: options.SeedDemoData,
		random:       options.Random,
		logger:       logger.Named("store"),
		dateLocks:    newKeyedMutex(),
		subscribers:  make(map[int]func([]models.DailyLog)),
	}
}

// LoadInitial restores the persisted list and session. Without a readable
// list it falls back to the demo dataset when seeding is enabled.
func (s *Store) LoadInitial() []models.DailyLog {
	session := s.readSession()
	logs, ok := s.readLogs()
	seeded := false
	if !ok {
		if s.seedDemoData {
			logs = SeedLogs(s.today(), s.random)
			seeded = true
		}
	}
	sortNewestFirst(logs)

	s.mu.Lock()
	s.logs = logs
	s.session = session
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	if seeded {
		s.persist(snapshot)
	}
	s.notify(snapshot)
	return models.CloneLogs(snapshot)
}

func (s *Store) Snapshot() []models.DailyLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneLogs(s.logs)
}

func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *Store) SetSession(session Session) {
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()

	if s.blob == nil {
		return
	}
	payload, err := json.Marshal(session)
	if err != nil {
		s.logger.Error("encode session", zap.Error(err))
		return
	}
	if err := s.blob.Put(SessionKey, payload); err != nil {
		s.logger.Warn("persist session", zap.Error(err))
	}
}

func (s *Store) EndSession() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.blob == nil {
		return
	}
	if err := s.blob.Delete(SessionKey); err != nil {
		s.logger.Warn("remove session", zap.Error(err))
	}
}

// Refetch replaces the list with the newest remote records. It does nothing
// without a session and keeps the local list when the remote one is empty.
func (s *Store) Refetch(ctx context.Context) error {
	session, ok := s.Session()
	if !ok || s.remote == nil {
		return nil
	}

	records, err := s.remote.ListRecent(ctx, session.Token, RefetchLimit)
	if err != nil {
		return fmt.Errorf("refetch daily logs: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	logs := models.CloneLogs(records)
	sortNewestFirst(logs)

	s.mu.Lock()
	s.logs = logs
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)
	return nil
}

// AddOrMergeLog merges patch into the record for its log date, creating a
// temporary record when none exists.
func (s *Store) AddOrMergeLog(ctx context.Context, patch models.LogPatch) (models.DailyLog, error) {
	if err := models.ValidatePatch(patch); err != nil {
		return models.DailyLog{}, err
	}

	logDate := s.today().Format(models.LogDateLayout)
	if patch.LogDate != nil && strings.TrimSpace(*patch.LogDate) != "" {
		logDate = strings.TrimSpace(*patch.LogDate)
	}
	patch.LogDate = &logDate

	unlock := s.dateLocks.Lock(logDate)
	defer unlock()

	now := s.now().UTC()

	s.mu.Lock()
	index := indexByDate(s.logs, logDate)
	var prior models.DailyLog
	existed := index >= 0
	base := models.DailyLog{UserID: s.currentUserIDLocked(), CreatedAt: now}
	if existed {
		prior = s.logs[index].Clone()
		base = prior
	} else {
		base.ID = models.TempIDPrefix + uuid.NewString()
	}
	merged := models.Merge(base, patch)
	merged.UpdatedAt = now
	if err := models.ValidateLog(merged); err != nil {
		s.mu.Unlock()
		return models.DailyLog{}, err
	}
	if existed {
		s.logs[index] = merged.Clone()
	} else {
		s.logs = append(s.logs, merged.Clone())
		sortNewestFirst(s.logs)
	}
	session := s.session
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)

	if session == nil || s.remote == nil {
		return merged, nil
	}

	stored, err := s.remote.Upsert(ctx, session.Token, merged)
	if err != nil {
		s.rollbackDate(logDate, merged.ID, prior, existed)
		return models.DailyLog{}, fmt.Errorf("sync daily log %s: %w", logDate, err)
	}

	s.replaceByDate(logDate, stored)
	return stored.Clone(), nil
}

// UpdateLog merges patch onto the record with id. A failed remote update
// restores the whole list as it was before the call.
func (s *Store) UpdateLog(ctx context.Context, id string, patch models.LogPatch) (models.DailyLog, error) {
	if err := models.ValidatePatch(patch); err != nil {
		return models.DailyLog{}, err
	}

	s.mu.RLock()
	index := indexByID(s.logs, id)
	logDate := ""
	if index >= 0 {
		logDate = s.logs[index].LogDate
	}
	s.mu.RUnlock()
	if index < 0 {
		return models.DailyLog{}, ErrRecordNotFound
	}
	if patch.LogDate != nil && *patch.LogDate != logDate {
		return models.DailyLog{}, models.ErrLogDateImmutable
	}

	unlock := s.dateLocks.Lock(logDate)
	defer unlock()

	s.mu.Lock()
	index = indexByID(s.logs, id)
	if index < 0 {
		s.mu.Unlock()
		return models.DailyLog{}, ErrRecordNotFound
	}
	previous := models.CloneLogs(s.logs)
	merged := models.Merge(s.logs[index], patch)
	merged.UpdatedAt = s.now().UTC()
	s.logs[index] = merged.Clone()
	session := s.session
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)

	if session == nil || s.remote == nil {
		return merged, nil
	}

	var (
		stored models.DailyLog
		err    error
	)
	if merged.IsTemporary() {
		stored, err = s.remote.Upsert(ctx, session.Token, merged)
	} else {
		stored, err = s.remote.Update(ctx, session.Token, id, patch)
	}
	if err != nil {
		s.restore(previous)
		return models.DailyLog{}, fmt.Errorf("sync daily log %s: %w", id, err)
	}

	s.replaceByDate(logDate, stored)
	return stored.Clone(), nil
}

// Clear removes every record of the current user: remote rows first when a
// session exists, then the in-memory list. The blob keeps an empty list so
// the next start does not seed demo data.
func (s *Store) Clear(ctx context.Context) error {
	session, ok := s.Session()
	if ok && s.remote != nil {
		if err := s.remote.DeleteAll(ctx, session.Token); err != nil {
			return fmt.Errorf("clear remote daily logs: %w", err)
		}
	}

	s.mu.Lock()
	s.logs = nil
	s.mu.Unlock()

	s.persist(nil)
	s.notify(nil)
	return nil
}

// Subscribe registers listener for every state change. Each call receives
// its own copy of the list.
func (s *Store) Subscribe(listener func([]models.DailyLog)) (unsubscribe func()) {
	s.subscribersMu.Lock()
	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subscribers[id] = listener
	s.subscribersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subscribersMu.Lock()
			delete(s.subscribers, id)
			s.subscribersMu.Unlock()
		})
	}
}

func (s *Store) Close() error {
	s.subscribersMu.Lock()
	s.subscribers = make(map[int]func([]models.DailyLog))
	s.subscribersMu.Unlock()

	if s.blob == nil {
		return nil
	}
	return s.blob.Close()
}

func (s *Store) rollbackDate(logDate string, insertedID string, prior models.DailyLog, existed bool) {
	s.mu.Lock()
	if existed {
		if index := indexByDate(s.logs, logDate); index >= 0 {
			s.logs[index] = prior
		}
	} else if index := indexByID(s.logs, insertedID); index >= 0 {
		s.logs = append(s.logs[:index], s.logs[index+1:]...)
	}
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)
}

func (s *Store) restore(previous []models.DailyLog) {
	s.mu.Lock()
	s.logs = previous
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)
}

func (s *Store) replaceByDate(logDate string, stored models.DailyLog) {
	s.mu.Lock()
	if index := indexByDate(s.logs, logDate); index >= 0 {
		s.logs[index] = stored.Clone()
	} else {
		s.logs = append(s.logs, stored.Clone())
		sortNewestFirst(s.logs)
	}
	snapshot := models.CloneLogs(s.logs)
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(snapshot)
}

func (s *Store) persist(logs []models.DailyLog) {
	if s.blob == nil {
		return
	}
	if logs == nil {
		logs = []models.DailyLog{}
	}
	payload, err := json.Marshal(logs)
	if err != nil {
		s.logger.Error("encode daily logs", zap.Error(err))
		return
	}
	if err := s.blob.Put(LogsKey, payload); err != nil {
		s.logger.Warn("persist daily logs", zap.Error(err))
	}
}

func (s *Store) readLogs() ([]models.DailyLog, bool) {
	if s.blob == nil {
		return nil, false
	}
	payload, err := s.blob.Get(LogsKey)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			s.logger.Warn("read persisted daily logs", zap.Error(err))
		}
		return nil, false
	}
	var logs []models.DailyLog
	if err := json.Unmarshal(payload, &logs); err != nil {
		s.logger.Warn("decode persisted daily logs", zap.Error(err))
		return nil, false
	}
	return logs, true
}

func (s *Store) readSession() *Session {
	if s.blob == nil {
		return nil
	}
	payload, err := s.blob.Get(SessionKey)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			s.logger.Warn("read persisted session", zap.Error(err))
		}
		return nil
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil || session.Token == "" {
		s.logger.Warn("discard unreadable session")
		return nil
	}
	return &session
}

func (s *Store) notify(logs []models.DailyLog) {
	s.subscribersMu.Lock()
	listeners := make([]func([]models.DailyLog), 0, len(s.subscribers))
	for _, listener := range s.subscribers {
		listeners = append(listeners, listener)
	}
	s.subscribersMu.Unlock()

	for _, listener := range listeners {
		listener(models.CloneLogs(logs))
	}
}

func (s *Store) currentUserIDLocked() string {
	if s.session != nil && s.session.UserID != "" {
		return s.session.UserID
	}
	return models.LocalUserID
}

func (s *Store) today() time.Time {
	return s.now().In(s.location)
}

func indexByDate(logs []models.DailyLog, logDate string) int {
	for index := range logs {
		if logs[index].LogDate == logDate {
			return index
		}
	}
	return -1
}

func indexByID(logs []models.DailyLog, id string) int {
	for index := range logs {
		if logs[index].ID == id {
			return index
		}
	}
	return -1
}

func sortNewestFirst(logs []models.DailyLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].LogDate > logs[j].LogDate
	})
}
