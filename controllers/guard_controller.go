// controllers/guard_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"society-backend/middleware"
	"society-backend/models"
	"society-backend/services"
	"society-backend/utils"
)

// GuardController serves the gate device: recording crossings, resolving
// pass codes, and confirming physical entry or denial.
type GuardController struct {
	Entry    *services.EntryService
	Resolver *services.ResolverService
	Approval *services.ApprovalService
}

func NewGuardController(entry *services.EntryService, resolver *services.ResolverService, approval *services.ApprovalService) *GuardController {
	return &GuardController{Entry: entry, Resolver: resolver, Approval: approval}
}

type recordEntryRequest struct {
	RequestType  string `json:"requestType" binding:"required"`
	Direction    string `json:"direction" binding:"required"`
	IdentityID   uint   `json:"identityId" binding:"required"`
	CheckpointID *uint  `json:"checkpointId"`
	MediaBase64  string `json:"mediaBase64"`
}

// RecordEntry appends one crossing to the ledger.
func (ctl *GuardController) RecordEntry(c *gin.Context) {
	var body recordEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_body")
		return
	}

	event, err := ctl.Entry.RecordEntry(middleware.ApartmentID(c), services.RecordEntryInput{
		RequestType:   models.RequestType(body.RequestType),
		Direction:     models.Direction(body.Direction),
		IdentityRefID: body.IdentityID,
		ActorRole:     middleware.ActorRole(c),
		ActorID:       middleware.ActorID(c),
		CheckpointID:  body.CheckpointID,
		MediaBase64:   body.MediaBase64,
	})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, event)
}

// ListActiveRequests returns the gate screen: open requests plus recently
// resolved ones awaiting physical confirmation.
func (ctl *GuardController) ListActiveRequests(c *gin.Context) {
	requests, err := ctl.Entry.ActiveRequests(middleware.ApartmentID(c))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, requests)
}

type resolveCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ResolveCode looks up a gate pass code across all identity tables of this
// apartment and returns the resolved identity with its active-entry state.
func (ctl *GuardController) ResolveCode(c *gin.Context) {
	var body resolveCodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_body")
		return
	}

	resolved, err := ctl.Resolver.ResolveByCode(middleware.ApartmentID(c), body.Code)
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, resolved)
}

// ResolveIdentity resolves one identity by type and id, for manual lookup
// at the gate.
func (ctl *GuardController) ResolveIdentity(c *gin.Context) {
	kind := models.RequestType(c.Param("type"))
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_identity_id")
		return
	}

	resolved, resolveErr := ctl.Resolver.ResolveByIDAndType(middleware.ApartmentID(c), kind, uint(id))
	if resolveErr != nil {
		utils.JSONAppError(c, resolveErr)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, resolved)
}

type forceResolveRequest struct {
	Status string `json:"status" binding:"required"`
}

// ForceResolve is the guard override on a pending request: approved,
// rejected, or noresponse.
func (ctl *GuardController) ForceResolve(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	var body forceResolveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_body")
		return
	}

	req, err := ctl.Approval.ForceApprove(middleware.ApartmentID(c), requestID, body.Status, middleware.ActorID(c))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}

// ConfirmEntry records the physical crossing after a remote approval.
func (ctl *GuardController) ConfirmEntry(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}

	req, err := ctl.Approval.ConfirmPhysicalEntry(middleware.ApartmentID(c), requestID, middleware.ActorID(c))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}

// ConfirmDenial records that a rejected visitor was turned away.
func (ctl *GuardController) ConfirmDenial(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}

	req, err := ctl.Approval.ConfirmDenial(middleware.ApartmentID(c), requestID)
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}

func requestIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_id")
		return 0, false
	}
	return uint(id), true
}
