package models

import (
	"gorm.io/gorm"
)

type Guard struct {
	gorm.Model

	ApartmentID  uint   `gorm:"index" json:"apartmentId"`
	FullName     string `gorm:"size:191" json:"fullName"`
	Username     string `gorm:"size:191;uniqueIndex" json:"username"`
	Password     string `gorm:"size:191" json:"-"`
	CheckpointID *uint  `gorm:"index" json:"checkpointId,omitempty"`
}
