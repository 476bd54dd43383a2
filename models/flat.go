package models

import (
	"gorm.io/gorm"
)

type Flat struct {
	gorm.Model

	ApartmentID uint   `gorm:"index" json:"apartmentId"`
	Number      string `gorm:"column:number;size:32" json:"number"`
	Block       string `gorm:"size:32" json:"block,omitempty"`
	Floor       string `gorm:"size:16" json:"floor,omitempty"`
}

// Label returns the human form used in snapshots and notifications,
// e.g. "B-302".
func (f Flat) Label() string {
	if f.Block == "" {
		return f.Number
	}
	return f.Block + "-" + f.Number
}

// ClientFlat assigns a resident to a flat. A client may hold several flats
// and a flat usually has several clients (family members).
type ClientFlat struct {
	gorm.Model

	ClientID uint `gorm:"index:idx_client_flat,unique" json:"clientId"`
	FlatID   uint `gorm:"index:idx_client_flat,unique" json:"flatId"`
	IsOwner  bool `gorm:"default:false" json:"isOwner"`
}
