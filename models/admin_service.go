package models

import (
	"gorm.io/gorm"
)

// AdminService is a society-level service visit (garbage pickup, lift
// maintenance) arranged by the management, not tied to any flat. Entries
// for it are identity-less: ledger row only, no approval requests.
type AdminService struct {
	gorm.Model

	ApartmentID uint   `gorm:"index" json:"apartmentId"`
	Name        string `gorm:"size:191" json:"name"`
	Category    string `gorm:"size:64" json:"category,omitempty"`
	VendorPhone string `gorm:"size:32" json:"vendorPhone,omitempty"`
	Status      string `gorm:"size:32;default:pending" json:"status"`
}
