package models

import (
	"gorm.io/gorm"
)

// Vehicle is a registered plate tracked at the gate. Vehicle entries are
// identity-less: they produce a ledger row but no approval requests.
type Vehicle struct {
	gorm.Model

	ApartmentID   uint   `gorm:"index" json:"apartmentId"`
	PlateNumber   string `gorm:"size:32;index" json:"plateNumber"`
	VehicleType   string `gorm:"size:32" json:"vehicleType,omitempty"`
	OwnerClientID *uint  `gorm:"index" json:"ownerClientId,omitempty"`
}
