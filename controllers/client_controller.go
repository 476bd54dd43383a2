// controllers/client_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"society-backend/middleware"
	"society-backend/services"
	"society-backend/utils"
)

// ClientController serves the resident app: listing pending requests,
// responding to them, and re-pinging the household.
type ClientController struct {
	Entry    *services.EntryService
	Approval *services.ApprovalService
}

func NewClientController(entry *services.EntryService, approval *services.ApprovalService) *ClientController {
	return &ClientController{Entry: entry, Approval: approval}
}

// ListPending returns the open requests targeting any flat the resident
// belongs to.
func (ctl *ClientController) ListPending(c *gin.Context) {
	requests, err := ctl.Entry.PendingRequestsForClient(middleware.ApartmentID(c), middleware.ActorID(c))
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, requests)
}

type respondRequest struct {
	Status         string `json:"status" binding:"required"`
	DeclineMessage string `json:"declineMessage"`
	LeaveAtGate    bool   `json:"leaveAtGate"`
}

// Respond records the resident's decision. Declining requires a message;
// declining a delivery with leaveAtGate books it as a parcel instead.
func (ctl *ClientController) Respond(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	var body respondRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_body")
		return
	}

	req, err := ctl.Approval.Respond(middleware.ApartmentID(c), requestID, services.RespondInput{
		Status:         body.Status,
		DeclineMessage: body.DeclineMessage,
		LeaveAtGate:    body.LeaveAtGate,
	}, services.Actor{Role: middleware.ActorRole(c), ID: middleware.ActorID(c)})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}

// Resend resets the request to pending and re-pings the household with
// renewed urgency.
func (ctl *ClientController) Resend(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}

	req, err := ctl.Approval.ResendNotification(middleware.ApartmentID(c), requestID,
		services.Actor{Role: middleware.ActorRole(c), ID: middleware.ActorID(c)})
	if err != nil {
		utils.JSONAppError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}
