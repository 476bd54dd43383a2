// services/resolver_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"society-backend/apperrors"
	"society-backend/models"
	"society-backend/utils"
)

// ResolvedIdentity is what a gate scan or typed lookup hands back to the
// guard screen: the profile snapshot plus a non-blocking validity warning.
type ResolvedIdentity struct {
	Snapshot models.IdentitySnapshot `json:"snapshot"`
	Warning  bool                    `json:"warning"`
}

// ResolverService maps gate-pass codes and identity references to the
// current profile snapshot. Every lookup is scoped to the caller's
// apartment; a cross-tenant hit is a NotFound, never a result.
type ResolverService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewResolverService(db *gorm.DB) *ResolverService {
	return &ResolverService{DB: db, Now: time.Now}
}

type identityResolver func(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error)

// identityResolvers is the typed dispatch table from request type to
// snapshot builder.
var identityResolvers = map[models.RequestType]identityResolver{
	models.RequestTypeGuest:        resolveGuest,
	models.RequestTypeMassGuest:    resolveGuest,
	models.RequestTypeDelivery:     resolveDelivery,
	models.RequestTypeRide:         resolveRide,
	models.RequestTypeService:      resolveServiceProvider,
	models.RequestTypeClientStaff:  resolveClientStaff,
	models.RequestTypeClient:       resolveClient,
	models.RequestTypeVehicle:      resolveVehicle,
	models.RequestTypeAdminService: resolveAdminService,
	models.RequestTypeGroup:        resolveGroupEntry,
}

// ResolveByIDAndType looks up one identity record by its id and kind.
func (s *ResolverService) ResolveByIDAndType(apartmentID uint, kind models.RequestType, id uint) (*ResolvedIdentity, error) {
	resolver, ok := identityResolvers[kind]
	if !ok {
		return nil, apperrors.NewBadRequestError("invalid_identity_type", string(kind))
	}
	snap, err := resolver(s, apartmentID, id)
	if err != nil {
		return nil, err
	}
	return &ResolvedIdentity{Snapshot: *snap, Warning: s.noonCutoffWarning(snap.ValidUntil)}, nil
}

// ResolveByCode resolves a scanned gate-pass code across the pre-approved
// identity types (guest, delivery, ride, service).
func (s *ResolverService) ResolveByCode(apartmentID uint, code string) (*ResolvedIdentity, error) {
	norm := utils.NormalizePassCode(code)
	if len(norm) != 8 {
		return nil, apperrors.NewBadRequestError("invalid_code_format")
	}
	formatted := norm[:4] + "-" + norm[4:]

	var guest models.Guest
	err := s.DB.Where("apartment_id = ? AND pass_code IN ?", apartmentID, []string{formatted, norm}).First(&guest).Error
	if err == nil {
		return s.ResolveByIDAndType(apartmentID, models.RequestTypeGuest, guest.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	var delivery models.Delivery
	err = s.DB.Where("apartment_id = ? AND pass_code IN ?", apartmentID, []string{formatted, norm}).First(&delivery).Error
	if err == nil {
		return s.ResolveByIDAndType(apartmentID, models.RequestTypeDelivery, delivery.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	var ride models.Ride
	err = s.DB.Where("apartment_id = ? AND pass_code IN ?", apartmentID, []string{formatted, norm}).First(&ride).Error
	if err == nil {
		return s.ResolveByIDAndType(apartmentID, models.RequestTypeRide, ride.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	var provider models.ServiceProvider
	err = s.DB.Where("apartment_id = ? AND pass_code IN ?", apartmentID, []string{formatted, norm}).First(&provider).Error
	if err == nil {
		return s.ResolveByIDAndType(apartmentID, models.RequestTypeService, provider.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	return nil, apperrors.NewNotFoundError("code_not_found")
}

// ActiveEntry returns the in-progress (checked-in, not checked-out) entry
// event for the identity, or nil if there is none.
func (s *ResolverService) ActiveEntry(apartmentID uint, kind models.RequestType, refID uint) (*models.EntryEvent, error) {
	var last models.EntryEvent
	err := s.DB.
		Where("apartment_id = ? AND identity_kind = ? AND identity_ref_id = ?", apartmentID, kind, refID).
		Order("id DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry history: %w", err)
	}
	if last.Direction == models.DirectionCheckin {
		return &last, nil
	}
	return nil, nil
}

// noonCutoffWarning flags a pass scanned after 12:00 on its last valid day.
// The scan still goes through; the guard just sees the warning.
func (s *ResolverService) noonCutoffWarning(validUntil *time.Time) bool {
	if validUntil == nil {
		return false
	}
	cutoff := time.Date(validUntil.Year(), validUntil.Month(), validUntil.Day(), 12, 0, 0, 0, validUntil.Location())
	return s.Now().After(cutoff)
}

// ---------------------------
// per-kind snapshot builders
// ---------------------------

func (s *ResolverService) flatRef(flatID uint) (ids []uint, labels []string) {
	if flatID == 0 {
		return nil, nil
	}
	var flat models.Flat
	if err := s.DB.First(&flat, flatID).Error; err != nil {
		return []uint{flatID}, []string{""}
	}
	return []uint{flatID}, []string{flat.Label()}
}

func (s *ResolverService) creatorRef(clientID uint) (name, phone string) {
	if clientID == 0 {
		return "", ""
	}
	var client models.Client
	if err := s.DB.First(&client, clientID).Error; err != nil {
		return "", ""
	}
	return client.FullName, client.Phone
}

func resolveGuest(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var guest models.Guest
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&guest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("guest_not_found")
		}
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	flatIDs, flatLabels := s.flatRef(guest.FlatID)
	creatorName, creatorPhone := s.creatorRef(guest.CreatedByClientID)

	snap := &models.IdentitySnapshot{
		Kind:           models.RequestTypeGuest,
		RefID:          guest.ID,
		Name:           guest.FullName,
		Phone:          guest.Phone,
		PassCode:       guest.PassCode,
		FlatIDs:        flatIDs,
		FlatLabels:     flatLabels,
		CreatedByName:  creatorName,
		CreatedByPhone: creatorPhone,
		ValidFrom:      guest.ValidFrom,
		ValidUntil:     guest.ValidUntil,
	}

	if guest.IsGroup && guest.GroupID != nil {
		// Sibling count is computed on demand: membership can still grow
		// until the group goes terminal.
		var siblings int64
		if err := s.DB.Model(&models.Guest{}).
			Where("apartment_id = ? AND group_id = ?", apartmentID, *guest.GroupID).
			Count(&siblings).Error; err != nil {
			return nil, fmt.Errorf("failed to count group siblings: %w", err)
		}
		snap.Kind = models.RequestTypeMassGuest
		snap.GroupID = *guest.GroupID
		snap.GroupName = guest.GroupName
		snap.GroupSize = int(siblings)
	}

	return snap, nil
}

func resolveDelivery(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var delivery models.Delivery
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&delivery, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("delivery_not_found")
		}
		return nil, fmt.Errorf("failed to load delivery: %w", err)
	}

	flatIDs, flatLabels := s.flatRef(delivery.FlatID)
	creatorName, creatorPhone := s.creatorRef(delivery.CreatedByClientID)

	return &models.IdentitySnapshot{
		Kind:           models.RequestTypeDelivery,
		RefID:          delivery.ID,
		Name:           delivery.AgentName,
		Phone:          delivery.AgentPhone,
		Company:        delivery.CompanyName,
		PassCode:       delivery.PassCode,
		FlatIDs:        flatIDs,
		FlatLabels:     flatLabels,
		CreatedByName:  creatorName,
		CreatedByPhone: creatorPhone,
		ValidFrom:      delivery.ValidFrom,
		ValidUntil:     delivery.ValidUntil,
	}, nil
}

func resolveRide(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var ride models.Ride
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&ride, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("ride_not_found")
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}

	flatIDs, flatLabels := s.flatRef(ride.FlatID)
	creatorName, creatorPhone := s.creatorRef(ride.CreatedByClientID)

	return &models.IdentitySnapshot{
		Kind:           models.RequestTypeRide,
		RefID:          ride.ID,
		Name:           ride.DriverName,
		Company:        ride.CompanyName,
		VehicleNo:      ride.VehicleNumber,
		PassCode:       ride.PassCode,
		FlatIDs:        flatIDs,
		FlatLabels:     flatLabels,
		CreatedByName:  creatorName,
		CreatedByPhone: creatorPhone,
		ValidFrom:      ride.ValidFrom,
		ValidUntil:     ride.ValidUntil,
	}, nil
}

func resolveServiceProvider(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var provider models.ServiceProvider
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("service_provider_not_found")
		}
		return nil, fmt.Errorf("failed to load service provider: %w", err)
	}

	flatIDs, flatLabels := s.flatRef(provider.FlatID)
	creatorName, creatorPhone := s.creatorRef(provider.CreatedByClientID)

	return &models.IdentitySnapshot{
		Kind:           models.RequestTypeService,
		RefID:          provider.ID,
		Name:           provider.FullName,
		Phone:          provider.Phone,
		Company:        provider.Category,
		PassCode:       provider.PassCode,
		FlatIDs:        flatIDs,
		FlatLabels:     flatLabels,
		CreatedByName:  creatorName,
		CreatedByPhone: creatorPhone,
		ValidFrom:      provider.ValidFrom,
		ValidUntil:     provider.ValidUntil,
	}, nil
}

func resolveClientStaff(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var staff models.ClientStaff
	if err := s.DB.Where("apartment_id = ?", apartmentID).Preload("Flats").First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("staff_not_found")
		}
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}

	snap := &models.IdentitySnapshot{
		Kind:    models.RequestTypeClientStaff,
		RefID:   staff.ID,
		Name:    staff.FullName,
		Phone:   staff.Phone,
		Company: staff.StaffRole,
	}
	for _, link := range staff.Flats {
		ids, labels := s.flatRef(link.FlatID)
		snap.FlatIDs = append(snap.FlatIDs, ids...)
		snap.FlatLabels = append(snap.FlatLabels, labels...)
	}
	return snap, nil
}

func resolveClient(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var client models.Client
	if err := s.DB.Where("apartment_id = ?", apartmentID).Preload("Flats").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("client_not_found")
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	snap := &models.IdentitySnapshot{
		Kind:  models.RequestTypeClient,
		RefID: client.ID,
		Name:  client.FullName,
		Phone: client.Phone,
	}
	for _, link := range client.Flats {
		ids, labels := s.flatRef(link.FlatID)
		snap.FlatIDs = append(snap.FlatIDs, ids...)
		snap.FlatLabels = append(snap.FlatLabels, labels...)
	}
	return snap, nil
}

func resolveVehicle(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var vehicle models.Vehicle
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("vehicle_not_found")
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return &models.IdentitySnapshot{
		Kind:      models.RequestTypeVehicle,
		RefID:     vehicle.ID,
		Name:      vehicle.PlateNumber,
		VehicleNo: vehicle.PlateNumber,
	}, nil
}

func resolveAdminService(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var svc models.AdminService
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&svc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("admin_service_not_found")
		}
		return nil, fmt.Errorf("failed to load admin service: %w", err)
	}
	return &models.IdentitySnapshot{
		Kind:    models.RequestTypeAdminService,
		RefID:   svc.ID,
		Name:    svc.Name,
		Company: svc.Category,
	}, nil
}

// resolveGroupEntry reuses the frozen snapshot of the referenced group
// ledger entry. Group entries without a flat create zero approval requests.
func resolveGroupEntry(s *ResolverService, apartmentID, id uint) (*models.IdentitySnapshot, error) {
	var event models.EntryEvent
	if err := s.DB.Where("apartment_id = ?", apartmentID).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("group_entry_not_found")
		}
		return nil, fmt.Errorf("failed to load group entry: %w", err)
	}
	var snap models.IdentitySnapshot
	if len(event.Snapshot) > 0 {
		if err := snap.UnmarshalFrom(event.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode group entry snapshot: %w", err)
		}
	}
	snap.Kind = models.RequestTypeGroup
	snap.RefID = event.ID
	snap.FlatIDs = nil
	snap.FlatLabels = nil
	return &snap, nil
}
