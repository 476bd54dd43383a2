package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RequestType discriminates what kind of visitor an entry event records.
type RequestType string

const (
	RequestTypeGuest        RequestType = "guest"
	RequestTypeDelivery     RequestType = "delivery"
	RequestTypeRide         RequestType = "ride"
	RequestTypeService      RequestType = "service"
	RequestTypeClient       RequestType = "client"
	RequestTypeClientStaff  RequestType = "clientStaff"
	RequestTypeAdminService RequestType = "adminService"
	RequestTypeVehicle      RequestType = "vehicle"
	RequestTypeGroup        RequestType = "group"
	RequestTypeMassGuest    RequestType = "massGuest"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeGuest, RequestTypeDelivery, RequestTypeRide, RequestTypeService,
		RequestTypeClient, RequestTypeClientStaff, RequestTypeAdminService,
		RequestTypeVehicle, RequestTypeGroup, RequestTypeMassGuest:
		return true
	}
	return false
}

// ResidentFacing reports whether entries of this type fan out approval
// requests to residents. Identity-less types never do.
func (t RequestType) ResidentFacing() bool {
	switch t {
	case RequestTypeVehicle, RequestTypeAdminService, RequestTypeGroup:
		return false
	}
	return true
}

type Direction string

const (
	DirectionCheckin  Direction = "checkin"
	DirectionCheckout Direction = "checkout"
	DirectionParcel   Direction = "parcel"
)

func (d Direction) Valid() bool {
	switch d {
	case DirectionCheckin, DirectionCheckout, DirectionParcel:
		return true
	}
	return false
}

// Actor roles for CreatedByRole.
const (
	ActorGuard = "guard"
	ActorUser  = "user"
)

// EntryEvent is one immutable record of a physical crossing. Rows are never
// updated after creation; all mutable state lives on the child
// ApprovalRequest rows. A checkout is always a new event, never an edit of
// the checkin row.
type EntryEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ApartmentID uint        `gorm:"index" json:"apartmentId"`
	RequestType RequestType `gorm:"size:32;index:idx_identity" json:"requestType"`
	Direction   Direction   `gorm:"size:16" json:"direction"`

	// Tagged identity reference: IdentityKind mirrors RequestType and
	// IdentityRefID points at the matching identity table.
	IdentityKind  RequestType `gorm:"size:32;index:idx_identity" json:"identityKind"`
	IdentityRefID uint        `gorm:"index:idx_identity" json:"identityRefId"`

	// Snapshot of the identity taken at creation time. Write-once: later
	// edits to the identity record must not change history.
	Snapshot datatypes.JSON `gorm:"column:snapshot" json:"snapshot"`

	GroupID *string `gorm:"size:64;index" json:"groupId,omitempty"`
	IsGroup bool    `gorm:"default:false" json:"isGroup"`

	CreatedByRole string `gorm:"size:16" json:"createdByRole"`
	CreatedByID   uint   `json:"createdById"`
	CheckpointID  *uint  `gorm:"index" json:"checkpointId,omitempty"`
	MediaURL      string `gorm:"size:512" json:"mediaUrl,omitempty"`

	Requests []ApprovalRequest `gorm:"foreignKey:EntryEventID" json:"requests,omitempty"`
	Flats    []EntryEventFlat  `gorm:"foreignKey:EntryEventID" json:"flats,omitempty"`
}

// EntryEventFlat links an entry event to one destination flat. The link is
// part of the immutable snapshot: it is written at creation and never
// changed.
type EntryEventFlat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	EntryEventID uint      `gorm:"index:idx_event_flat,unique" json:"entryEventId"`
	FlatID       uint      `gorm:"index:idx_event_flat,unique" json:"flatId"`
}

// IdentitySnapshot is the denormalized payload stored in EntryEvent.Snapshot.
type IdentitySnapshot struct {
	Kind      RequestType `json:"kind"`
	RefID     uint        `json:"refId"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	Company   string      `json:"company,omitempty"`
	VehicleNo string      `json:"vehicleNo,omitempty"`
	PassCode  string      `json:"passCode,omitempty"`

	FlatIDs    []uint   `json:"flatIds,omitempty"`
	FlatLabels []string `json:"flatLabels,omitempty"`

	CreatedByName  string `json:"createdByName,omitempty"`
	CreatedByPhone string `json:"createdByPhone,omitempty"`

	GroupID   string `json:"groupId,omitempty"`
	GroupName string `json:"groupName,omitempty"`
	GroupSize int    `json:"groupSize,omitempty"`

	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// Marshal renders the snapshot for the JSON column.
func (s IdentitySnapshot) Marshal() (datatypes.JSON, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// UnmarshalFrom decodes a stored snapshot column back into s.
func (s *IdentitySnapshot) UnmarshalFrom(raw datatypes.JSON) error {
	return json.Unmarshal(raw, s)
}
