package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceProvider is a one-off service visit (plumber, electrician, tutor)
// registered by a resident.
type ServiceProvider struct {
	gorm.Model

	ApartmentID       uint       `gorm:"index" json:"apartmentId"`
	FlatID            uint       `gorm:"index" json:"flatId"`
	CreatedByClientID uint       `gorm:"index" json:"createdByClientId"`
	FullName          string     `gorm:"size:191" json:"fullName"`
	Category          string     `gorm:"size:64" json:"category,omitempty"`
	Phone             string     `gorm:"size:32" json:"phone,omitempty"`
	PassCode          string     `gorm:"size:16;index" json:"passCode,omitempty"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidUntil        *time.Time `json:"validUntil,omitempty"`
	Status            string     `gorm:"size:32;default:pending" json:"status"`
}
