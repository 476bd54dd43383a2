package models

import (
	"gorm.io/gorm"
)

// Approval request statuses. approved/rejected/noresponse are terminal.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusNoResponse = "noresponse"
)

// IsTerminalStatus reports whether s admits no further respond/force calls.
func IsTerminalStatus(s string) bool {
	return s == StatusApproved || s == StatusRejected || s == StatusNoResponse
}

// ApprovalRequest is the per-destination-flat approval sub-record of an
// EntryEvent. All workflow state evolves here; the parent event is frozen.
type ApprovalRequest struct {
	gorm.Model

	ApartmentID  uint `gorm:"index" json:"apartmentId"`
	EntryEventID uint `gorm:"index" json:"entryEventId"`
	FlatID       uint `gorm:"index" json:"flatId"`

	Status string    `gorm:"size:16;default:pending;index" json:"status"`
	Kind   Direction `gorm:"size:16" json:"kind"`

	// Guard confirmation of the physical crossing, a second independent
	// step after the remote decision. Mutually exclusive flags: entry only
	// from approved, denial only from rejected.
	GuardConfirmedEntry  bool `gorm:"default:false" json:"guardConfirmedEntry"`
	GuardConfirmedDenial bool `gorm:"default:false" json:"guardConfirmedDenial"`

	ApprovedByGuardID *uint `json:"approvedByGuardId,omitempty"`
	ApprovedByUserID  *uint `json:"approvedByUserId,omitempty"`
	RejectedByGuardID *uint `json:"rejectedByGuardId,omitempty"`
	RejectedByUserID  *uint `json:"rejectedByUserId,omitempty"`

	DeclineMessage string `gorm:"size:512" json:"declineMessage,omitempty"`

	EntryEvent EntryEvent `gorm:"foreignKey:EntryEventID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}
