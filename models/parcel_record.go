package models

import (
	"time"
)

// ParcelRecord is an append-only audit row created exactly once when a
// delivery is resolved as "leave at gate". The unique index on
// ApprovalRequestID enforces the exactly-once guarantee at the database.
type ParcelRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ApartmentID       uint   `gorm:"index" json:"apartmentId"`
	ApprovalRequestID uint   `gorm:"uniqueIndex" json:"approvalRequestId"`
	EntryEventID      uint   `gorm:"index" json:"entryEventId"`
	FlatID            uint   `gorm:"index" json:"flatId"`
	CompanyName       string `gorm:"size:191" json:"companyName,omitempty"`
	Note              string `gorm:"size:512" json:"note,omitempty"`
	CollectedAt       *time.Time `json:"collectedAt,omitempty"`
}
