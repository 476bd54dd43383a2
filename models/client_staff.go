package models

import (
	"gorm.io/gorm"
)

// ClientStaff is household staff (maid, cook, driver) employed by residents.
// One staff member commonly serves several flats, so every flat they are
// attached to gets its own approval request on check-in.
type ClientStaff struct {
	gorm.Model

	ApartmentID uint   `gorm:"index" json:"apartmentId"`
	FullName    string `gorm:"size:191" json:"fullName"`
	StaffRole   string `gorm:"size:64" json:"staffRole,omitempty"`
	Phone       string `gorm:"size:32" json:"phone,omitempty"`
	Status      string `gorm:"size:32;default:pending" json:"status"`

	Flats []ClientStaffFlat `gorm:"foreignKey:ClientStaffID" json:"flats,omitempty"`
}

type ClientStaffFlat struct {
	gorm.Model

	ClientStaffID uint `gorm:"index:idx_staff_flat,unique" json:"clientStaffId"`
	FlatID        uint `gorm:"index:idx_staff_flat,unique" json:"flatId"`
}
