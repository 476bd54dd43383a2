// services/notify_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"society-backend/models"
	"society-backend/utils"
)

// NotificationPayload is what the push gateway receives per recipient set.
// The wire format past these fields belongs to the gateway.
type NotificationPayload struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	DeepLink     string `json:"deepLink"`
	EntryEventID uint   `json:"entryEventId"`
	RequestID    uint   `json:"requestId"`
	FlatID       uint   `json:"flatId"`
	Live         bool   `json:"live,omitempty"`
	Sound        string `json:"sound,omitempty"`
}

// NotificationDispatcher delivers a payload to a set of device tokens.
// Fire-and-forget: implementations log individual token failures and never
// block the workflow on them.
type NotificationDispatcher interface {
	Send(tokens []string, payload NotificationPayload)
}

// LogDispatcher is the fallback when no push gateway is configured. It just
// logs what would have been sent, so local setups still show the flow.
type LogDispatcher struct{}

func (LogDispatcher) Send(tokens []string, payload NotificationPayload) {
	slog.Info("push (mock)",
		"recipients", len(tokens),
		"type", payload.Type,
		"title", payload.Title,
		"body", payload.Body,
		"deepLink", payload.DeepLink,
	)
}

type NotifyService struct {
	DB            *gorm.DB
	Dispatcher    NotificationDispatcher
	MaxConcurrent int
	BatchSize     int
}

func NewNotifyService(db *gorm.DB, dispatcher NotificationDispatcher) *NotifyService {
	maxConcurrent, err := strconv.Atoi(utils.EnvOrDefault("PUSH_MAX_CONCURRENT", "8"))
	if err != nil || maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &NotifyService{
		DB:            db,
		Dispatcher:    dispatcher,
		MaxConcurrent: maxConcurrent,
		BatchSize:     20,
	}
}

// RecipientTokens returns the union of device tokens of every client
// currently assigned to the flat, excluding excludeClientID (0 = nobody).
func (s *NotifyService) RecipientTokens(flatID uint, excludeClientID uint) ([]string, error) {
	var clients []models.Client
	err := s.DB.
		Joins("JOIN client_flats ON client_flats.client_id = clients.id").
		Where("client_flats.flat_id = ? AND client_flats.deleted_at IS NULL", flatID).
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load flat clients: %w", err)
	}

	seen := map[string]bool{}
	tokens := []string{}
	for _, client := range clients {
		if excludeClientID != 0 && client.ID == excludeClientID {
			continue
		}
		if len(client.DeviceTokens) == 0 {
			continue
		}
		var deviceTokens []string
		if err := json.Unmarshal(client.DeviceTokens, &deviceTokens); err != nil {
			slog.Warn("skipping malformed device tokens", "clientId", client.ID, "error", err)
			continue
		}
		for _, token := range deviceTokens {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// visitorTitles maps request types to their arrival notification titles.
// Typed dispatch instead of switching on raw strings at every call site.
var visitorTitles = map[models.RequestType]string{
	models.RequestTypeGuest:       "Guest at the gate",
	models.RequestTypeMassGuest:   "Guests at the gate",
	models.RequestTypeDelivery:    "Delivery at the gate",
	models.RequestTypeRide:        "Your ride has arrived",
	models.RequestTypeService:     "Service visit at the gate",
	models.RequestTypeClientStaff: "Staff at the gate",
	models.RequestTypeClient:      "Resident at the gate",
}

// displayName collapses group entries into a single "N and M more" form
// instead of one notification per sibling.
func displayName(snap models.IdentitySnapshot) string {
	if snap.GroupSize > 1 {
		return fmt.Sprintf("%s and %d more", snap.Name, snap.GroupSize-1)
	}
	if snap.Company != "" && snap.Name == "" {
		return snap.Company
	}
	return snap.Name
}

func flatLabel(snap models.IdentitySnapshot, flatID uint) string {
	for i, id := range snap.FlatIDs {
		if id == flatID && i < len(snap.FlatLabels) {
			return snap.FlatLabels[i]
		}
	}
	return ""
}

func requestDeepLink(requestID uint) string {
	return fmt.Sprintf("/requests/%d", requestID)
}

// NotifyCreated fans out the arrival notification for every request of a
// fresh entry event. Checkout events get a departure wording.
func (s *NotifyService) NotifyCreated(event models.EntryEvent, requests []models.ApprovalRequest, snap models.IdentitySnapshot, excludeClientID uint) {
	title, ok := visitorTitles[event.RequestType]
	if !ok {
		title = "Visitor at the gate"
	}
	for _, req := range requests {
		body := fmt.Sprintf("%s is at the gate for %s", displayName(snap), flatLabel(snap, req.FlatID))
		if event.Direction == models.DirectionCheckout {
			title = "Checkout at the gate"
			body = fmt.Sprintf("%s is leaving from %s", displayName(snap), flatLabel(snap, req.FlatID))
		}
		s.send(req.FlatID, excludeClientID, NotificationPayload{
			Type:         string(event.RequestType),
			Title:        title,
			Body:         body,
			DeepLink:     requestDeepLink(req.ID),
			EntryEventID: event.ID,
			RequestID:    req.ID,
			FlatID:       req.FlatID,
		})
	}
}

// NotifyResent re-sends the arrival notification with renewed urgency.
func (s *NotifyService) NotifyResent(event models.EntryEvent, req models.ApprovalRequest, snap models.IdentitySnapshot) {
	title, ok := visitorTitles[event.RequestType]
	if !ok {
		title = "Visitor at the gate"
	}
	s.send(req.FlatID, 0, NotificationPayload{
		Type:         string(event.RequestType),
		Title:        title,
		Body:         fmt.Sprintf("Reminder: %s is still waiting at the gate", displayName(snap)),
		DeepLink:     requestDeepLink(req.ID),
		EntryEventID: event.ID,
		RequestID:    req.ID,
		FlatID:       req.FlatID,
		Live:         true,
		Sound:        "urgent",
	})
}

// NotifyDecision tells the other residents of the flat what was decided and
// by whom. The decider themselves is excluded.
func (s *NotifyService) NotifyDecision(event models.EntryEvent, req models.ApprovalRequest, snap models.IdentitySnapshot, status string, deciderName string, excludeClientID uint) {
	verb := "approved"
	if status == models.StatusRejected {
		verb = "denied"
	} else if status == models.StatusNoResponse {
		verb = "resolved without response by"
	}
	body := fmt.Sprintf("Entry of %s was %s", displayName(snap), verb)
	if deciderName != "" {
		body += " by " + deciderName
	}
	s.send(req.FlatID, excludeClientID, NotificationPayload{
		Type:         string(event.RequestType) + "_" + status,
		Title:        "Gate update",
		Body:         body,
		DeepLink:     requestDeepLink(req.ID),
		EntryEventID: event.ID,
		RequestID:    req.ID,
		FlatID:       req.FlatID,
	})
}

// NotifyParcel replaces the rejection notification when a delivery is left
// at the gate.
func (s *NotifyService) NotifyParcel(event models.EntryEvent, req models.ApprovalRequest, snap models.IdentitySnapshot, excludeClientID uint) {
	s.send(req.FlatID, excludeClientID, NotificationPayload{
		Type:         "parcel",
		Title:        "Parcel at the gate",
		Body:         fmt.Sprintf("A parcel from %s was left at the gate for %s", displayName(snap), flatLabel(snap, req.FlatID)),
		DeepLink:     requestDeepLink(req.ID),
		EntryEventID: event.ID,
		RequestID:    req.ID,
		FlatID:       req.FlatID,
	})
}

func (s *NotifyService) send(flatID uint, excludeClientID uint, payload NotificationPayload) {
	tokens, err := s.RecipientTokens(flatID, excludeClientID)
	if err != nil {
		slog.Warn("recipient resolution failed", "flatId", flatID, "error", err)
		return
	}
	s.fanout(tokens, payload)
}

// fanout dispatches token batches through a bounded worker pool so large
// flats don't serialize behind one slow push call. Delivery is best-effort.
func (s *NotifyService) fanout(tokens []string, payload NotificationPayload) {
	if len(tokens) == 0 {
		return
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	sem := make(chan struct{}, s.MaxConcurrent)
	var wg sync.WaitGroup

	for start := 0; start < len(tokens); start += batchSize {
		end := start + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("dispatcher panicked", "panic", fmt.Sprintf("%v", r))
				}
			}()
			s.Dispatcher.Send(batch, payload)
		}(batch)
	}
	wg.Wait()
}
