package models

import (
	"time"

	"gorm.io/gorm"
)

// Guest is a pre-approved visitor registered by a resident. Mass guests
// (party invites) share a GroupID and are flagged IsGroup so that gate
// decisions move all of them together.
type Guest struct {
	gorm.Model

	ApartmentID       uint       `gorm:"index" json:"apartmentId"`
	FlatID            uint       `gorm:"index" json:"flatId"`
	CreatedByClientID uint       `gorm:"index" json:"createdByClientId"`
	FullName          string     `gorm:"size:191" json:"fullName"`
	Phone             string     `gorm:"size:32" json:"phone,omitempty"`
	PassCode          string     `gorm:"size:16;index" json:"passCode,omitempty"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidUntil        *time.Time `json:"validUntil,omitempty"`
	Status            string     `gorm:"size:32;default:pending" json:"status"`

	GroupID   *string `gorm:"size:64;index" json:"groupId,omitempty"`
	IsGroup   bool    `gorm:"default:false" json:"isGroup"`
	GroupName string  `gorm:"size:191" json:"groupName,omitempty"`
}
