// services/entry_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"society-backend/apperrors"
	"society-backend/models"
)

func TestRecordEntryAppendsLedgerAndOpensRequest(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "B", "302")
	createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flat.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")

	event := recordCheckin(t, s, models.RequestTypeGuest, guest.ID, guard.ID)

	assert.Equal(t, models.RequestTypeGuest, event.RequestType)
	assert.Equal(t, models.DirectionCheckin, event.Direction)
	assert.Equal(t, guest.ID, event.IdentityRefID)
	assert.Equal(t, models.ActorGuard, event.CreatedByRole)

	var snap models.IdentitySnapshot
	require.NoError(t, snap.UnmarshalFrom(event.Snapshot))
	assert.Equal(t, "Visitor One", snap.Name)
	assert.Equal(t, []string{"B-302"}, snap.FlatLabels)

	require.Len(t, event.Requests, 1)
	assert.Equal(t, models.StatusPending, event.Requests[0].Status)
	assert.Equal(t, flat.ID, event.Requests[0].FlatID)

	push := s.Pushes.last()
	assert.Equal(t, "Guest at the gate", push.Payload.Title)
	assert.Contains(t, push.Payload.Body, "Visitor One")
	assert.Contains(t, push.Payload.Body, "B-302")
}

func TestRecordEntryRejectsDuplicateCheckin(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flat.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")

	recordCheckin(t, s, models.RequestTypeGuest, guest.ID, guard.ID)

	_, err := s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeGuest,
		Direction:     models.DirectionCheckin,
		IdentityRefID: guest.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "already_in_progress", apperrors.GetAppError(err).Message)

	// Checkout closes the active entry; a fresh checkin is allowed again.
	_, err = s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeGuest,
		Direction:     models.DirectionCheckout,
		IdentityRefID: guest.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
	})
	require.NoError(t, err)

	recordCheckin(t, s, models.RequestTypeGuest, guest.ID, guard.ID)
}

func TestRecordEntryCheckoutRequiresActiveEntry(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")

	_, err := s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeGuest,
		Direction:     models.DirectionCheckout,
		IdentityRefID: guest.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "not_checked_in", apperrors.GetAppError(err).Message)
}

func TestSnapshotFrozenAgainstLaterProfileEdits(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "B", "9")
	createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flat.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Original Name")

	event := recordCheckin(t, s, models.RequestTypeGuest, guest.ID, guard.ID)

	require.NoError(t, s.DB.Model(&models.Guest{}).Where("id = ?", guest.ID).
		Update("full_name", "Edited Name").Error)

	var stored models.EntryEvent
	require.NoError(t, s.DB.First(&stored, event.ID).Error)
	var snap models.IdentitySnapshot
	require.NoError(t, snap.UnmarshalFrom(stored.Snapshot))
	assert.Equal(t, "Original Name", snap.Name)
}

func TestRecordEntryDeletesMediaWhenTransactionFails(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")

	// Sabotage the request table so the write transaction fails after the
	// media upload succeeded.
	require.NoError(t, s.DB.Migrator().DropTable(&models.ApprovalRequest{}))

	_, err := s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeGuest,
		Direction:     models.DirectionCheckin,
		IdentityRefID: guest.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
		MediaBase64:   "ZmFrZS1pbWFnZQ==",
	})
	require.Error(t, err)

	require.Len(t, s.Media.uploads, 1)
	assert.Equal(t, s.Media.uploads, s.Media.deleted())
}

func TestRecordEntryVehicleCreatesNoRequest(t *testing.T) {
	s := newTestStack(t)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	vehicle := models.Vehicle{ApartmentID: testApartment, PlateNumber: "KA-01-AB-1234"}
	require.NoError(t, s.DB.Create(&vehicle).Error)

	event, err := s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeVehicle,
		Direction:     models.DirectionCheckin,
		IdentityRefID: vehicle.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, event.Requests)
	assert.Equal(t, 0, s.Pushes.count())
}

func TestActiveRequestsShowsOpenWork(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	alice := createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flat.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")

	pendingGuest := createGuest(t, s.DB, testApartment, flat.ID, "Pending Guest")
	approvedGuest := createGuest(t, s.DB, testApartment, flat.ID, "Approved Guest")
	doneGuest := createGuest(t, s.DB, testApartment, flat.ID, "Done Guest")

	pendingEvent := recordCheckin(t, s, models.RequestTypeGuest, pendingGuest.ID, guard.ID)
	approvedEvent := recordCheckin(t, s, models.RequestTypeGuest, approvedGuest.ID, guard.ID)
	doneEvent := recordCheckin(t, s, models.RequestTypeGuest, doneGuest.ID, guard.ID)

	_, err := s.Approval.Respond(testApartment, approvedEvent.Requests[0].ID,
		RespondInput{Status: models.StatusApproved}, Actor{Role: models.ActorUser, ID: alice.ID})
	require.NoError(t, err)

	_, err = s.Approval.Respond(testApartment, doneEvent.Requests[0].ID,
		RespondInput{Status: models.StatusApproved}, Actor{Role: models.ActorUser, ID: alice.ID})
	require.NoError(t, err)
	_, err = s.Approval.ConfirmPhysicalEntry(testApartment, doneEvent.Requests[0].ID, guard.ID)
	require.NoError(t, err)

	requests, err := s.Entry.ActiveRequests(testApartment)
	require.NoError(t, err)
	ids := map[uint]bool{}
	for _, req := range requests {
		ids[req.ID] = true
	}
	assert.True(t, ids[pendingEvent.Requests[0].ID])
	assert.True(t, ids[approvedEvent.Requests[0].ID])
	assert.False(t, ids[doneEvent.Requests[0].ID])
}

func TestPendingRequestsForClientScopedToTheirFlats(t *testing.T) {
	s := newTestStack(t)
	flatA := createFlat(t, s.DB, testApartment, "A", "1")
	flatB := createFlat(t, s.DB, testApartment, "B", "2")
	alice := createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flatA.ID)
	createClient(t, s.DB, testApartment, "Bob", []string{"tok-bob"}, flatB.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")

	guestA := createGuest(t, s.DB, testApartment, flatA.ID, "Guest For A")
	guestB := createGuest(t, s.DB, testApartment, flatB.ID, "Guest For B")

	eventA := recordCheckin(t, s, models.RequestTypeGuest, guestA.ID, guard.ID)
	recordCheckin(t, s, models.RequestTypeGuest, guestB.ID, guard.ID)

	requests, err := s.Entry.PendingRequestsForClient(testApartment, alice.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, eventA.Requests[0].ID, requests[0].ID)
}
