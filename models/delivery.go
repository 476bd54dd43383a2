package models

import (
	"time"

	"gorm.io/gorm"
)

// Delivery is an expected parcel/courier visit registered by a resident.
type Delivery struct {
	gorm.Model

	ApartmentID       uint       `gorm:"index" json:"apartmentId"`
	FlatID            uint       `gorm:"index" json:"flatId"`
	CreatedByClientID uint       `gorm:"index" json:"createdByClientId"`
	CompanyName       string     `gorm:"size:191" json:"companyName"`
	AgentName         string     `gorm:"size:191" json:"agentName,omitempty"`
	AgentPhone        string     `gorm:"size:32" json:"agentPhone,omitempty"`
	PassCode          string     `gorm:"size:16;index" json:"passCode,omitempty"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidUntil        *time.Time `json:"validUntil,omitempty"`
	Status            string     `gorm:"size:32;default:pending" json:"status"`
}
