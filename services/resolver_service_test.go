// services/resolver_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"society-backend/apperrors"
	"society-backend/models"
)

func TestResolveByCodeNormalizesInput(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "B", "302")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")
	require.NoError(t, s.DB.Model(&models.Guest{}).Where("id = ?", guest.ID).
		Update("pass_code", "ABCD-1234").Error)

	for _, code := range []string{"ABCD-1234", "abcd1234", " abcd-1234 ", "ABCD 1234"} {
		resolved, err := s.Resolver.ResolveByCode(testApartment, code)
		require.NoError(t, err, "code %q", code)
		assert.Equal(t, models.RequestTypeGuest, resolved.Snapshot.Kind)
		assert.Equal(t, guest.ID, resolved.Snapshot.RefID)
	}

	_, err := s.Resolver.ResolveByCode(testApartment, "ABC")
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequestError(err))
}

func TestResolveByCodeScopedToApartment(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "B", "302")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")
	require.NoError(t, s.DB.Model(&models.Guest{}).Where("id = ?", guest.ID).
		Update("pass_code", "ABCD-1234").Error)

	_, err := s.Resolver.ResolveByCode(testOtherApartment, "ABCD-1234")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.Equal(t, "code_not_found", apperrors.GetAppError(err).Message)
}

func TestResolveByCodeChecksDeliveriesAfterGuests(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	delivery := createDelivery(t, s.DB, testApartment, flat.ID, "Speedy Couriers")
	require.NoError(t, s.DB.Model(&models.Delivery{}).Where("id = ?", delivery.ID).
		Update("pass_code", "WXYZ-9876").Error)

	resolved, err := s.Resolver.ResolveByCode(testApartment, "wxyz9876")
	require.NoError(t, err)
	assert.Equal(t, models.RequestTypeDelivery, resolved.Snapshot.Kind)
	assert.Equal(t, "Speedy Couriers", resolved.Snapshot.Company)
}

func TestNoonCutoffWarning(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	lastDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")
	require.NoError(t, s.DB.Model(&models.Guest{}).Where("id = ?", guest.ID).
		Update("valid_until", lastDay).Error)

	cases := []struct {
		name    string
		now     time.Time
		warning bool
	}{
		{"morning of last day", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), false},
		{"afternoon of last day", time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), true},
		{"day before", time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s.Resolver.Now = func() time.Time { return tc.now }
			resolved, err := s.Resolver.ResolveByIDAndType(testApartment, models.RequestTypeGuest, guest.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.warning, resolved.Warning)
		})
	}
}

func TestResolveGroupGuestCountsSiblings(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "C", "10")
	g1 := createGroupGuest(t, s.DB, testApartment, flat.ID, "Guest One", "party-42", "Birthday")
	createGroupGuest(t, s.DB, testApartment, flat.ID, "Guest Two", "party-42", "Birthday")
	createGroupGuest(t, s.DB, testApartment, flat.ID, "Guest Three", "party-42", "Birthday")

	resolved, err := s.Resolver.ResolveByIDAndType(testApartment, models.RequestTypeGuest, g1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestTypeMassGuest, resolved.Snapshot.Kind)
	assert.Equal(t, "party-42", resolved.Snapshot.GroupID)
	assert.Equal(t, "Birthday", resolved.Snapshot.GroupName)
	assert.Equal(t, 3, resolved.Snapshot.GroupSize)
}

func TestActiveEntryTracksLedgerTail(t *testing.T) {
	s := newTestStack(t)
	flat := createFlat(t, s.DB, testApartment, "A", "1")
	createClient(t, s.DB, testApartment, "Alice", []string{"tok-alice"}, flat.ID)
	guard := createGuard(t, s.DB, testApartment, "Ramesh")
	guest := createGuest(t, s.DB, testApartment, flat.ID, "Visitor One")

	active, err := s.Resolver.ActiveEntry(testApartment, models.RequestTypeGuest, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	event := recordCheckin(t, s, models.RequestTypeGuest, guest.ID, guard.ID)

	active, err = s.Resolver.ActiveEntry(testApartment, models.RequestTypeGuest, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, event.ID, active.ID)

	_, err = s.Entry.RecordEntry(testApartment, RecordEntryInput{
		RequestType:   models.RequestTypeGuest,
		Direction:     models.DirectionCheckout,
		IdentityRefID: guest.ID,
		ActorRole:     models.ActorGuard,
		ActorID:       guard.ID,
	})
	require.NoError(t, err)

	active, err = s.Resolver.ActiveEntry(testApartment, models.RequestTypeGuest, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestResolveUnknownIdentity(t *testing.T) {
	s := newTestStack(t)

	_, err := s.Resolver.ResolveByIDAndType(testApartment, models.RequestTypeGuest, 999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = s.Resolver.ResolveByIDAndType(testApartment, models.RequestType("bogus"), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequestError(err))
}
