// services/testutil_test.go
package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"society-backend/config"
	"society-backend/models"
)

const (
	testApartment      uint = 1
	testOtherApartment uint = 2
)

var testDBSeq int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:workflow_test_%d?mode=memory&cache=shared&_busy_timeout=5000", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))
	return db
}

type sentPush struct {
	Tokens  []string
	Payload NotificationPayload
}

// captureDispatcher records every Send for assertions.
type captureDispatcher struct {
	mu    sync.Mutex
	sends []sentPush
}

func (d *captureDispatcher) Send(tokens []string, payload NotificationPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sends = append(d.sends, sentPush{Tokens: append([]string(nil), tokens...), Payload: payload})
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sends)
}

func (d *captureDispatcher) all() []sentPush {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentPush(nil), d.sends...)
}

func (d *captureDispatcher) last() sentPush {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sends[len(d.sends)-1]
}

func (d *captureDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sends = nil
}

// waitPushes blocks until the dispatcher has seen at least n sends; entry
// creation fans out on a background goroutine.
func waitPushes(t *testing.T, d *captureDispatcher, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return d.count() >= n }, 5*time.Second, 10*time.Millisecond)
}

type fakeMediaStore struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func (m *fakeMediaStore) Upload(base64Data, subdir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := fmt.Sprintf("uploads/%s/fake-%d.jpg", subdir, len(m.uploads)+1)
	m.uploads = append(m.uploads, path)
	return path, nil
}

func (m *fakeMediaStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, path)
	return nil
}

func (m *fakeMediaStore) deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}

// testStack wires the full service graph against one in-memory database.
type testStack struct {
	DB       *gorm.DB
	Pushes   *captureDispatcher
	Media    *fakeMediaStore
	Resolver *ResolverService
	Notify   *NotifyService
	Entry    *EntryService
	Approval *ApprovalService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := setupTestDB(t)
	pushes := &captureDispatcher{}
	media := &fakeMediaStore{}
	notify := &NotifyService{DB: db, Dispatcher: pushes, MaxConcurrent: 4, BatchSize: 20}
	resolver := NewResolverService(db)
	entry := NewEntryService(db, resolver, notify, media, LogAttendanceService{})
	approval := NewApprovalService(db, notify)
	return &testStack{
		DB:       db,
		Pushes:   pushes,
		Media:    media,
		Resolver: resolver,
		Notify:   notify,
		Entry:    entry,
		Approval: approval,
	}
}

// ---------------------------
// fixtures
// ---------------------------

func createFlat(t *testing.T, db *gorm.DB, apartmentID uint, block, number string) models.Flat {
	t.Helper()
	flat := models.Flat{ApartmentID: apartmentID, Block: block, Number: number}
	require.NoError(t, db.Create(&flat).Error)
	return flat
}

func createClient(t *testing.T, db *gorm.DB, apartmentID uint, name string, tokens []string, flatIDs ...uint) models.Client {
	t.Helper()
	raw, err := json.Marshal(tokens)
	require.NoError(t, err)
	client := models.Client{
		ApartmentID:  apartmentID,
		FullName:     name,
		DeviceTokens: datatypes.JSON(raw),
	}
	require.NoError(t, db.Create(&client).Error)
	for _, flatID := range flatIDs {
		link := models.ClientFlat{ClientID: client.ID, FlatID: flatID}
		require.NoError(t, db.Create(&link).Error)
	}
	return client
}

func createGuard(t *testing.T, db *gorm.DB, apartmentID uint, name string) models.Guard {
	t.Helper()
	guard := models.Guard{ApartmentID: apartmentID, FullName: name, Username: fmt.Sprintf("%s-%d", name, time.Now().UnixNano())}
	require.NoError(t, db.Create(&guard).Error)
	return guard
}

func createGuest(t *testing.T, db *gorm.DB, apartmentID, flatID uint, name string) models.Guest {
	t.Helper()
	guest := models.Guest{
		ApartmentID: apartmentID,
		FlatID:      flatID,
		FullName:    name,
		Status:      models.StatusPending,
	}
	require.NoError(t, db.Create(&guest).Error)
	return guest
}

func createGroupGuest(t *testing.T, db *gorm.DB, apartmentID, flatID uint, name, groupID, groupName string) models.Guest {
	t.Helper()
	gid := groupID
	guest := models.Guest{
		ApartmentID: apartmentID,
		FlatID:      flatID,
		FullName:    name,
		Status:      models.StatusPending,
		GroupID:     &gid,
		IsGroup:     true,
		GroupName:   groupName,
	}
	require.NoError(t, db.Create(&guest).Error)
	return guest
}

func createDelivery(t *testing.T, db *gorm.DB, apartmentID, flatID uint, company string) models.Delivery {
	t.Helper()
	delivery := models.Delivery{
		ApartmentID: apartmentID,
		FlatID:      flatID,
		CompanyName: company,
		Status:      models.StatusPending,
	}
	require.NoError(t, db.Create(&delivery).Error)
	return delivery
}

// recordCheckin records one guard-side checkin and waits for its arrival
// fanout so later assertions see a quiet dispatcher.
func recordCheckin(t *testing.T, s *testStack, kind models.RequestType, refID uint, guardID uint) *models.EntryEvent {
	t.Helper()
	before := s.Pushes.count()
	event, err := s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   kind,
		Direction:     models.DirectionCheckin,
		IdentityRefID: refID,
		ActorRole:     models.ActorGuard,
		ActorID:       guardID,
	})
	require.NoError(t, err)
	// Fixtures always give the flat at least one tokened resident, so each
	// resident-facing checkin produces exactly one arrival send to drain.
	if len(event.Requests) > 0 {
		waitPushes(t, s.Pushes, before+len(event.Requests))
	}
	return event
}

func loadRequest(t *testing.T, db *gorm.DB, id uint) models.ApprovalRequest {
	t.Helper()
	var req models.ApprovalRequest
	require.NoError(t, db.First(&req, id).Error)
	return req
}
