package models

import (
	"gorm.io/gorm"
)

// Checkpoint is a surveillance post (gate) inside an apartment.
type Checkpoint struct {
	gorm.Model

	ApartmentID uint   `gorm:"index" json:"apartmentId"`
	Name        string `gorm:"size:128" json:"name"`
	GateNumber  string `gorm:"size:32" json:"gateNumber,omitempty"`
}
