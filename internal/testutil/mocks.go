package testutil

import (
	"context"
	"strings"
	"sync"
	"time"
	"workdiary/internal/models"
	"workdiary/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level whose format contains substr.
func (m *MockLogger) Count(level, substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level && strings.Contains(l.Format, substr) {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	Clears int
}

func (m *MockCache) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(m.Clears)
}

func (m *MockCache) SetIfGeneration(gen uint64, key string, value []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != uint64(m.Clears) {
		return false
	}
	m.Data[key] = value
	return true
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Clears++
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu             sync.Mutex
	Requests       int
	Endpoints      map[string]int
	CacheHits      int
	CacheMisses    int
	Ingested       int
	Failures       map[string]int
	ImagesSaved    map[string]int
	FetchObserved  int
	EntriesTotal   int64
	EntriesTotalOK bool
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Endpoints:   make(map[string]int),
		Failures:    make(map[string]int),
		ImagesSaved: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
	if m.Endpoints != nil {
		m.Endpoints[endpoint]++
	}
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncEntriesIngested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ingested++
}
func (m *MockMetrics) IncIngestFailures(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[reason]++
}
func (m *MockMetrics) IncImagesSaved(source string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesSaved[source]++
}
func (m *MockMetrics) ObserveFetchDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchObserved++
}
func (m *MockMetrics) SetEntriesTotal(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesTotal = count
	m.EntriesTotalOK = true
}

// MockFetcher implements fetcher.FetcherInterface with canned responses per URL.
type MockFetcher struct {
	mu        sync.Mutex
	Responses map[string][]byte
	Err       error
	Calls     []string
}

func (m *MockFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, rawURL)
	if m.Err != nil {
		return nil, m.Err
	}
	if data, ok := m.Responses[rawURL]; ok {
		return data, nil
	}
	return nil, &models.FetchError{URL: rawURL, StatusCode: 404}
}

// MockStore implements store.Store in memory. Set the *Err fields to inject failures.
type MockStore struct {
	mu        sync.Mutex
	Entries   []models.WorkDiaryEntry
	InsertErr error
	ListErr   error
	CountErr  error
	Optimized int
	Truncated int
}

func (m *MockStore) Insert(_ context.Context, entry *models.WorkDiaryEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	entry.ID = int64(len(m.Entries) + 1)
	m.Entries = append(m.Entries, *entry)
	return entry.ID, nil
}

func (m *MockStore) List(_ context.Context, filter models.EntryFilter) ([]models.WorkDiaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []models.WorkDiaryEntry{}
	for _, e := range m.Entries {
		if e.DeletedFlag != 0 || (filter.UserID != "" && e.UserID != filter.UserID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MockStore) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Entries {
		if m.Entries[i].ID == id && m.Entries[i].DeletedFlag == 0 {
			m.Entries[i].DeletedFlag = 1
			return nil
		}
	}
	return &models.NotFoundError{ID: id}
}

func (m *MockStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	var n int64
	for _, e := range m.Entries {
		if e.DeletedFlag == 0 {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) Truncate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = nil
	m.Truncated++
	return nil
}

func (m *MockStore) Optimize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Optimized++
	return nil
}

func (m *MockStore) Close() error { return nil }
