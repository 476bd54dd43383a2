// services/identity_status.go
package services

import (
	"gorm.io/gorm"

	"society-backend/models"
)

// mirrorIdentityStatus writes the workflow outcome back onto the identity
// record so resident-facing lists show it without joining the ledger. For
// grouped guests this is one bulk statement over the whole group, never a
// per-row loop.
func mirrorIdentityStatus(tx *gorm.DB, apartmentID uint, kind models.RequestType, refID uint, groupID *string, status string) error {
	switch kind {
	case models.RequestTypeGuest, models.RequestTypeMassGuest:
		query := tx.Model(&models.Guest{})
		if groupID != nil && *groupID != "" {
			query = query.Where("apartment_id = ? AND group_id = ?", apartmentID, *groupID)
		} else {
			query = query.Where("apartment_id = ? AND id = ?", apartmentID, refID)
		}
		return query.Update("status", status).Error
	case models.RequestTypeDelivery:
		return tx.Model(&models.Delivery{}).
			Where("apartment_id = ? AND id = ?", apartmentID, refID).
			Update("status", status).Error
	case models.RequestTypeRide:
		return tx.Model(&models.Ride{}).
			Where("apartment_id = ? AND id = ?", apartmentID, refID).
			Update("status", status).Error
	case models.RequestTypeService:
		return tx.Model(&models.ServiceProvider{}).
			Where("apartment_id = ? AND id = ?", apartmentID, refID).
			Update("status", status).Error
	case models.RequestTypeClientStaff:
		return tx.Model(&models.ClientStaff{}).
			Where("apartment_id = ? AND id = ?", apartmentID, refID).
			Update("status", status).Error
	case models.RequestTypeAdminService:
		return tx.Model(&models.AdminService{}).
			Where("apartment_id = ? AND id = ?", apartmentID, refID).
			Update("status", status).Error
	}
	// client, vehicle and group entries carry no mirrored status field
	return nil
}
