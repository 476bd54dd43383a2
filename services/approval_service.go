// services/approval_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"society-backend/apperrors"
	"society-backend/models"
)

// Actor is whoever is driving a transition: a gate guard or a resident.
type Actor struct {
	Role string
	ID   uint
}

// RespondInput carries a resident's (or guard's) decision on a request.
type RespondInput struct {
	Status         string
	DeclineMessage string
	LeaveAtGate    bool
}

// errStaleDecision signals that the conditioned UPDATE matched zero rows:
// someone else already won the race.
var errStaleDecision = errors.New("stale decision")

// ApprovalService drives the approval state machine. Every transition is a
// single conditioned UPDATE whose WHERE re-checks the precondition, so two
// concurrent actors cannot both win; the loser gets a Conflict naming
// whoever decided first. Group transitions are one bulk statement.
type ApprovalService struct {
	DB     *gorm.DB
	Notify *NotifyService
}

func NewApprovalService(db *gorm.DB, notify *NotifyService) *ApprovalService {
	return &ApprovalService{DB: db, Notify: notify}
}

// Respond records a resident-side decision: approve, or reject with a
// decline message. Declining a delivery with LeaveAtGate reclassifies the
// request as a parcel instead of rejecting entry.
func (s *ApprovalService) Respond(apartmentID, requestID uint, in RespondInput, actor Actor) (*models.ApprovalRequest, error) {
	if in.Status != models.StatusApproved && in.Status != models.StatusRejected {
		return nil, apperrors.NewBadRequestError("invalid_status", in.Status)
	}

	req, event, snap, err := s.loadRequest(apartmentID, requestID)
	if err != nil {
		return nil, err
	}

	if in.LeaveAtGate {
		if event.RequestType != models.RequestTypeDelivery {
			return nil, apperrors.NewBadRequestError("leave_at_gate_only_for_deliveries")
		}
		if in.Status != models.StatusRejected {
			return nil, apperrors.NewBadRequestError("leave_at_gate_requires_decline")
		}
		return s.leaveAtGate(req, event, snap, in, actor)
	}

	if in.Status == models.StatusRejected && strings.TrimSpace(in.DeclineMessage) == "" {
		return nil, apperrors.NewBadRequestError("decline_message_required")
	}

	return s.decide(req, event, snap, in.Status, actor, in.DeclineMessage)
}

// ForceApprove is the guard override: it may resolve a request as approved,
// rejected or noresponse while residents are still silent, and wins any
// race against a concurrent resident response (or loses it, cleanly).
func (s *ApprovalService) ForceApprove(apartmentID, requestID uint, status string, guardID uint) (*models.ApprovalRequest, error) {
	if status != models.StatusApproved && status != models.StatusRejected && status != models.StatusNoResponse {
		return nil, apperrors.NewBadRequestError("invalid_status", status)
	}

	req, event, snap, err := s.loadRequest(apartmentID, requestID)
	if err != nil {
		return nil, err
	}

	return s.decide(req, event, snap, status, Actor{Role: models.ActorGuard, ID: guardID}, "")
}

// ConfirmPhysicalEntry records that the guard physically let the visitor
// through after remote approval. Remote approval and physical presence are
// separate events, so this is a second, independent confirmation.
func (s *ApprovalService) ConfirmPhysicalEntry(apartmentID, requestID uint, guardID uint) (*models.ApprovalRequest, error) {
	res := s.DB.Model(&models.ApprovalRequest{}).
		Where("id = ? AND apartment_id = ? AND status = ? AND guard_confirmed_entry = ?",
			requestID, apartmentID, models.StatusApproved, false).
		Updates(map[string]interface{}{
			"guard_confirmed_entry": true,
			"approved_by_guard_id":  gorm.Expr("COALESCE(approved_by_guard_id, ?)", guardID),
		})
	if res.Error != nil {
		return nil, apperrors.NewInternalError("confirm_entry_failed", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		req, err := s.reloadRequest(apartmentID, requestID)
		if err != nil {
			return nil, err
		}
		switch {
		case req.GuardConfirmedEntry:
			return nil, apperrors.NewConflictError("entry_already_confirmed")
		case req.Status == models.StatusPending:
			// Unanswered requests are invisible to the entry-confirmation
			// path; confirming one never implies an approval.
			return nil, apperrors.NewNotFoundError("request_not_found")
		default:
			return nil, apperrors.NewConflictError("request_not_approved", s.deciderDetail(req))
		}
	}
	return s.reloadRequest(apartmentID, requestID)
}

// ConfirmDenial records that the guard turned the visitor away after a
// rejection.
func (s *ApprovalService) ConfirmDenial(apartmentID, requestID uint) (*models.ApprovalRequest, error) {
	res := s.DB.Model(&models.ApprovalRequest{}).
		Where("id = ? AND apartment_id = ? AND status = ? AND guard_confirmed_denial = ?",
			requestID, apartmentID, models.StatusRejected, false).
		Update("guard_confirmed_denial", true)
	if res.Error != nil {
		return nil, apperrors.NewInternalError("confirm_denial_failed", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		req, err := s.reloadRequest(apartmentID, requestID)
		if err != nil {
			return nil, err
		}
		switch {
		case req.GuardConfirmedDenial:
			return nil, apperrors.NewConflictError("denial_already_confirmed")
		default:
			return nil, apperrors.NewConflictError("request_not_rejected", s.deciderDetail(req))
		}
	}
	return s.reloadRequest(apartmentID, requestID)
}

// ResendNotification resets the request (and its group siblings) back to
// pending and re-runs the fanout with renewed urgency. Safe to call
// repeatedly; it never creates parcel records.
func (s *ApprovalService) ResendNotification(apartmentID, requestID uint, actor Actor) (*models.ApprovalRequest, error) {
	req, event, snap, err := s.loadRequest(apartmentID, requestID)
	if err != nil {
		return nil, err
	}
	if req.GuardConfirmedEntry || req.GuardConfirmedDenial {
		return nil, apperrors.NewConflictError("request_closed")
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		query := s.scopeRequest(tx, req, event).
			Where("guard_confirmed_entry = ? AND guard_confirmed_denial = ?", false, false)
		res := query.Updates(map[string]interface{}{
			"status":               models.StatusPending,
			"approved_by_guard_id": nil,
			"approved_by_user_id":  nil,
			"rejected_by_guard_id": nil,
			"rejected_by_user_id":  nil,
			"decline_message":      "",
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleDecision
		}
		return mirrorIdentityStatus(tx, req.ApartmentID, event.IdentityKind, event.IdentityRefID, event.GroupID, models.StatusPending)
	})
	if txErr != nil {
		if errors.Is(txErr, errStaleDecision) {
			return nil, apperrors.NewConflictError("request_closed")
		}
		return nil, apperrors.NewInternalError("resend_failed", txErr.Error())
	}

	fresh, err := s.reloadRequest(apartmentID, requestID)
	if err != nil {
		return nil, err
	}

	s.Notify.NotifyResent(*event, *fresh, snap)
	return fresh, nil
}

// ---------------------------
// internals
// ---------------------------

// decide runs the conditioned terminal transition shared by Respond and
// ForceApprove.
func (s *ApprovalService) decide(req *models.ApprovalRequest, event *models.EntryEvent, snap models.IdentitySnapshot, status string, actor Actor, declineMessage string) (*models.ApprovalRequest, error) {
	if req.GuardConfirmedEntry || req.GuardConfirmedDenial {
		return nil, apperrors.NewConflictError("request_closed")
	}

	updates := map[string]interface{}{"status": status}
	switch {
	case status == models.StatusApproved && actor.Role == models.ActorGuard:
		updates["approved_by_guard_id"] = actor.ID
	case status == models.StatusApproved:
		updates["approved_by_user_id"] = actor.ID
	case actor.Role == models.ActorGuard:
		updates["rejected_by_guard_id"] = actor.ID
	default:
		updates["rejected_by_user_id"] = actor.ID
	}
	if declineMessage != "" {
		updates["decline_message"] = declineMessage
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := s.scopeRequest(tx, req, event).
			Where("status = ?", models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleDecision
		}
		return mirrorIdentityStatus(tx, req.ApartmentID, event.IdentityKind, event.IdentityRefID, event.GroupID, status)
	})
	if txErr != nil {
		if errors.Is(txErr, errStaleDecision) {
			fresh, err := s.reloadRequest(req.ApartmentID, req.ID)
			if err != nil {
				return nil, err
			}
			if models.IsTerminalStatus(fresh.Status) {
				return nil, apperrors.NewConflictError("already_decided", s.deciderDetail(fresh))
			}
			return nil, apperrors.NewNotFoundError("request_not_found")
		}
		return nil, apperrors.NewInternalError("decision_failed", txErr.Error())
	}

	fresh, err := s.reloadRequest(req.ApartmentID, req.ID)
	if err != nil {
		return nil, err
	}

	exclude := uint(0)
	deciderName := ""
	if actor.Role == models.ActorUser {
		exclude = actor.ID
		deciderName = s.clientName(actor.ID)
	} else {
		deciderName = s.guardName(actor.ID)
	}
	s.Notify.NotifyDecision(*event, *fresh, snap, status, deciderName, exclude)

	return fresh, nil
}

// leaveAtGate reclassifies a declined delivery as a parcel drop: kind flips
// to parcel, the resolved status sticks, and exactly one ParcelRecord is
// written (the unique index backs that up). The standard rejection
// notification is replaced by the parcel one.
func (s *ApprovalService) leaveAtGate(req *models.ApprovalRequest, event *models.EntryEvent, snap models.IdentitySnapshot, in RespondInput, actor Actor) (*models.ApprovalRequest, error) {
	if req.GuardConfirmedEntry || req.GuardConfirmedDenial {
		return nil, apperrors.NewConflictError("request_closed")
	}

	updates := map[string]interface{}{
		"kind":   models.DirectionParcel,
		"status": in.Status,
	}
	if actor.Role == models.ActorGuard {
		updates["rejected_by_guard_id"] = actor.ID
	} else {
		updates["rejected_by_user_id"] = actor.ID
	}
	if strings.TrimSpace(in.DeclineMessage) != "" {
		updates["decline_message"] = in.DeclineMessage
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ?", req.ID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleDecision
		}

		parcel := models.ParcelRecord{
			ApartmentID:       req.ApartmentID,
			ApprovalRequestID: req.ID,
			EntryEventID:      req.EntryEventID,
			FlatID:            req.FlatID,
			CompanyName:       snap.Company,
			Note:              in.DeclineMessage,
		}
		if err := tx.Create(&parcel).Error; err != nil {
			return fmt.Errorf("failed to create parcel record: %w", err)
		}

		return mirrorIdentityStatus(tx, req.ApartmentID, event.IdentityKind, event.IdentityRefID, event.GroupID, in.Status)
	})
	if txErr != nil {
		if errors.Is(txErr, errStaleDecision) {
			fresh, err := s.reloadRequest(req.ApartmentID, req.ID)
			if err != nil {
				return nil, err
			}
			if models.IsTerminalStatus(fresh.Status) {
				return nil, apperrors.NewConflictError("already_decided", s.deciderDetail(fresh))
			}
			return nil, apperrors.NewNotFoundError("request_not_found")
		}
		return nil, apperrors.NewInternalError("leave_at_gate_failed", txErr.Error())
	}

	fresh, err := s.reloadRequest(req.ApartmentID, req.ID)
	if err != nil {
		return nil, err
	}

	exclude := uint(0)
	if actor.Role == models.ActorUser {
		exclude = actor.ID
	}
	s.Notify.NotifyParcel(*event, *fresh, snap, exclude)

	return fresh, nil
}

// scopeRequest targets either the single request or, for group entries,
// every sibling request sharing the groupId, as one statement.
func (s *ApprovalService) scopeRequest(tx *gorm.DB, req *models.ApprovalRequest, event *models.EntryEvent) *gorm.DB {
	if event.IsGroup && event.GroupID != nil {
		siblingEvents := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.EntryEvent{}).
			Select("id").
			Where("apartment_id = ? AND group_id = ? AND is_group = ?", req.ApartmentID, *event.GroupID, true)
		return tx.Model(&models.ApprovalRequest{}).
			Where("apartment_id = ? AND entry_event_id IN (?)", req.ApartmentID, siblingEvents)
	}
	return tx.Model(&models.ApprovalRequest{}).Where("id = ?", req.ID)
}

func (s *ApprovalService) loadRequest(apartmentID, requestID uint) (*models.ApprovalRequest, *models.EntryEvent, models.IdentitySnapshot, error) {
	var req models.ApprovalRequest
	err := s.DB.Preload("EntryEvent").
		Where("apartment_id = ?", apartmentID).
		First(&req, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.IdentitySnapshot{}, apperrors.NewNotFoundError("request_not_found")
		}
		return nil, nil, models.IdentitySnapshot{}, fmt.Errorf("failed to load request: %w", err)
	}

	event := req.EntryEvent
	var snap models.IdentitySnapshot
	if len(event.Snapshot) > 0 {
		if err := snap.UnmarshalFrom(event.Snapshot); err != nil {
			return nil, nil, models.IdentitySnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
		}
	}
	return &req, &event, snap, nil
}

func (s *ApprovalService) reloadRequest(apartmentID, requestID uint) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := s.DB.Where("apartment_id = ?", apartmentID).First(&req, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("request_not_found")
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return &req, nil
}

// deciderDetail names whoever already decided the request, for Conflict
// messages.
func (s *ApprovalService) deciderDetail(req *models.ApprovalRequest) string {
	switch {
	case req.ApprovedByUserID != nil:
		return fmt.Sprintf("already approved by resident %s", s.clientName(*req.ApprovedByUserID))
	case req.ApprovedByGuardID != nil:
		return fmt.Sprintf("already approved by guard %s", s.guardName(*req.ApprovedByGuardID))
	case req.RejectedByUserID != nil:
		return fmt.Sprintf("already %s by resident %s", req.Status, s.clientName(*req.RejectedByUserID))
	case req.RejectedByGuardID != nil:
		return fmt.Sprintf("already %s by guard %s", req.Status, s.guardName(*req.RejectedByGuardID))
	}
	return "already " + req.Status
}

func (s *ApprovalService) guardName(id uint) string {
	var guard models.Guard
	if err := s.DB.First(&guard, id).Error; err != nil {
		return fmt.Sprintf("#%d", id)
	}
	return guard.FullName
}

func (s *ApprovalService) clientName(id uint) string {
	var client models.Client
	if err := s.DB.First(&client, id).Error; err != nil {
		return fmt.Sprintf("#%d", id)
	}
	return client.FullName
}
