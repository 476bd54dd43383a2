package models

import (
	"gorm.io/gorm"
)

// Apartment is the tenant root. Every other row carries an ApartmentID and
// every query is scoped by it.
type Apartment struct {
	gorm.Model

	Name string `gorm:"size:191" json:"name"`
	City string `gorm:"size:64" json:"city,omitempty"`
}
