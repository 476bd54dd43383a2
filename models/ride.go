package models

import (
	"time"

	"gorm.io/gorm"
)

// Ride is an expected cab/ride-hail pickup registered by a resident.
type Ride struct {
	gorm.Model

	ApartmentID       uint       `gorm:"index" json:"apartmentId"`
	FlatID            uint       `gorm:"index" json:"flatId"`
	CreatedByClientID uint       `gorm:"index" json:"createdByClientId"`
	CompanyName       string     `gorm:"size:191" json:"companyName"`
	DriverName        string     `gorm:"size:191" json:"driverName,omitempty"`
	VehicleNumber     string     `gorm:"size:32" json:"vehicleNumber,omitempty"`
	PassCode          string     `gorm:"size:16;index" json:"passCode,omitempty"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidUntil        *time.Time `json:"validUntil,omitempty"`
	Status            string     `gorm:"size:32;default:pending" json:"status"`
}
