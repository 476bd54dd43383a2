package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Client is a resident of the apartment. DeviceTokens holds the push tokens
// of every device the resident is signed in on, as a JSON string array.
type Client struct {
	gorm.Model

	ApartmentID  uint           `gorm:"index" json:"apartmentId"`
	FullName     string         `gorm:"size:191" json:"fullName"`
	Phone        string         `gorm:"size:32;index" json:"phone"`
	Email        string         `gorm:"size:191" json:"email,omitempty"`
	DeviceTokens datatypes.JSON `gorm:"column:device_tokens" json:"-"`

	Flats []ClientFlat `gorm:"foreignKey:ClientID" json:"flats,omitempty"`
}
