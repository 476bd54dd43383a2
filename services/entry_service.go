// services/entry_service.go
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"society-backend/apperrors"
	"society-backend/models"
	"society-backend/utils"
)

// RecordEntryInput is what the guard endpoint (or a resident self check-in)
// supplies for one physical crossing.
type RecordEntryInput struct {
	RequestType   models.RequestType
	Direction     models.Direction
	IdentityRefID uint
	ActorRole     string
	ActorID       uint
	CheckpointID  *uint
	MediaBase64   string
}

// EntryService owns the append-only entry ledger. All writes for one
// crossing (event, flat links, approval requests) commit as one unit; a
// partial write would leave requests that can never be approved.
type EntryService struct {
	DB         *gorm.DB
	Resolver   *ResolverService
	Notify     *NotifyService
	Media      MediaStore
	Attendance AttendanceService
}

func NewEntryService(db *gorm.DB, resolver *ResolverService, notify *NotifyService, media MediaStore, attendance AttendanceService) *EntryService {
	return &EntryService{DB: db, Resolver: resolver, Notify: notify, Media: media, Attendance: attendance}
}

// RecordEntry validates, snapshots and appends one crossing to the ledger,
// fanning out approval requests per destination flat and notifying the
// residents after commit.
func (s *EntryService) RecordEntry(apartmentID uint, in RecordEntryInput) (*models.EntryEvent, error) {
	if !in.RequestType.Valid() {
		return nil, apperrors.NewBadRequestError("invalid_request_type", string(in.RequestType))
	}
	if !in.Direction.Valid() {
		return nil, apperrors.NewBadRequestError("invalid_direction", string(in.Direction))
	}
	if in.ActorRole != models.ActorGuard && in.ActorRole != models.ActorUser {
		return nil, apperrors.NewBadRequestError("invalid_actor_role", in.ActorRole)
	}
	if in.IdentityRefID == 0 {
		return nil, apperrors.NewBadRequestError("missing_identity_ref")
	}

	resolved, err := s.Resolver.ResolveByIDAndType(apartmentID, in.RequestType, in.IdentityRefID)
	if err != nil {
		return nil, err
	}
	snap := resolved.Snapshot

	// The ledger is the source of truth for in/out state: at most one
	// active (non-checked-out) entry per identity.
	switch in.Direction {
	case models.DirectionCheckin:
		active, err := s.Resolver.ActiveEntry(apartmentID, snap.Kind, snap.RefID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, apperrors.NewConflictError("already_in_progress",
				fmt.Sprintf("checkin already recorded at entry %d", active.ID))
		}
	case models.DirectionCheckout:
		active, err := s.Resolver.ActiveEntry(apartmentID, snap.Kind, snap.RefID)
		if err != nil {
			return nil, err
		}
		if active == nil {
			return nil, apperrors.NewConflictError("not_checked_in")
		}
	}

	// Media goes to the store before the transaction so the row can point
	// at it; if anything below fails the file is removed again.
	mediaURL := ""
	if in.MediaBase64 != "" {
		mediaURL, err = s.Media.Upload(in.MediaBase64, "entries")
		if err != nil {
			return nil, apperrors.NewInternalError("media_upload_failed", err.Error())
		}
	}

	var groupID *string
	isGroup := false
	if snap.GroupID != "" {
		gid := snap.GroupID
		groupID = &gid
		isGroup = true
	}

	snapJSON, err := snap.Marshal()
	if err != nil {
		s.compensateMedia(mediaURL)
		return nil, apperrors.NewInternalError("snapshot_encode_failed", err.Error())
	}

	var event models.EntryEvent
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		event = models.EntryEvent{
			ApartmentID:   apartmentID,
			RequestType:   snap.Kind,
			Direction:     in.Direction,
			IdentityKind:  snap.Kind,
			IdentityRefID: snap.RefID,
			Snapshot:      snapJSON,
			GroupID:       groupID,
			IsGroup:       isGroup,
			CreatedByRole: in.ActorRole,
			CreatedByID:   in.ActorID,
			CheckpointID:  in.CheckpointID,
			MediaURL:      mediaURL,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create entry event: %w", err)
		}

		for _, flatID := range snap.FlatIDs {
			link := models.EntryEventFlat{EntryEventID: event.ID, FlatID: flatID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link flat %d: %w", flatID, err)
			}

			if snap.Kind.ResidentFacing() {
				req := models.ApprovalRequest{
					ApartmentID:  apartmentID,
					EntryEventID: event.ID,
					FlatID:       flatID,
					Status:       models.StatusPending,
					Kind:         in.Direction,
				}
				if err := tx.Create(&req).Error; err != nil {
					return fmt.Errorf("failed to create approval request for flat %d: %w", flatID, err)
				}
				event.Requests = append(event.Requests, req)
			}
		}

		if snap.Kind.ResidentFacing() && len(event.Requests) > 0 {
			if err := mirrorIdentityStatus(tx, apartmentID, snap.Kind, snap.RefID, groupID, models.StatusPending); err != nil {
				return fmt.Errorf("failed to mirror identity status: %w", err)
			}
		}

		return nil
	})
	if txErr != nil {
		s.compensateMedia(mediaURL)
		var mysqlErr *mysql.MySQLError
		if errors.As(txErr, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, apperrors.NewConflictError("duplicate_entry")
		}
		if appErr := apperrors.GetAppError(txErr); appErr != nil {
			return nil, appErr
		}
		return nil, apperrors.NewInternalError("entry_create_failed", txErr.Error())
	}

	// Staff crossings clock attendance; the shift module is a black box
	// here and its failures only degrade bookkeeping, not the entry.
	if snap.Kind == models.RequestTypeClientStaff {
		var attErr error
		switch in.Direction {
		case models.DirectionCheckin:
			attErr = s.Attendance.ClockIn(snap.RefID, time.Now())
		case models.DirectionCheckout:
			attErr = s.Attendance.ClockOut(snap.RefID, time.Now())
		}
		if attErr != nil {
			slog.Warn("attendance clock failed", "staffId", snap.RefID, "error", attErr)
		}
	}

	// Fanout runs outside the transaction, after commit, best-effort.
	if len(event.Requests) > 0 {
		notifyEvent := event
		requests := append([]models.ApprovalRequest(nil), event.Requests...)
		exclude := uint(0)
		if in.ActorRole == models.ActorUser {
			exclude = in.ActorID
		}
		utils.SafeGo("entry-created-notify", func() {
			s.Notify.NotifyCreated(notifyEvent, requests, snap, exclude)
		})
	}

	return &event, nil
}

// ActiveRequests lists the unresolved (pending or approved-but-unconfirmed)
// requests for the gate screen, newest first.
func (s *EntryService) ActiveRequests(apartmentID uint) ([]models.ApprovalRequest, error) {
	var requests []models.ApprovalRequest
	err := s.DB.
		Preload("EntryEvent").
		Where("apartment_id = ?", apartmentID).
		Where("status = ? OR (status = ? AND guard_confirmed_entry = ?)",
			models.StatusPending, models.StatusApproved, false).
		Order("id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active requests: %w", err)
	}
	return requests, nil
}

// PendingRequestsForClient lists pending requests across all flats the
// client is assigned to.
func (s *EntryService) PendingRequestsForClient(apartmentID, clientID uint) ([]models.ApprovalRequest, error) {
	var requests []models.ApprovalRequest
	err := s.DB.
		Preload("EntryEvent").
		Joins("JOIN client_flats ON client_flats.flat_id = approval_requests.flat_id").
		Where("client_flats.client_id = ? AND client_flats.deleted_at IS NULL", clientID).
		Where("approval_requests.apartment_id = ? AND approval_requests.status = ?", apartmentID, models.StatusPending).
		Order("approval_requests.id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

func (s *EntryService) compensateMedia(mediaURL string) {
	if mediaURL == "" {
		return
	}
	if err := s.Media.Delete(mediaURL); err != nil {
		slog.Warn("media compensation failed", "path", mediaURL, "error", err)
	}
}
