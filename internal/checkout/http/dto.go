package http

type SlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// CreateCheckoutSessionRequest is the body of POST /booking/create-checkout-session.
// Presence of serviceId and selectedSlots is checked by the service so the
// error message matches the documented one.
type CreateCheckoutSessionRequest struct {
	ServiceID     string        `json:"serviceId"`
	SelectedSlots []SlotRequest `json:"selectedSlots" binding:"omitempty,max=100"`
	Name          string        `json:"name" binding:"omitempty,max=100"`
	Phone         string        `json:"phone" binding:"omitempty,max=30"`
	Email         string        `json:"email" binding:"omitempty,email"`
}

type CreateCheckoutSessionResponse struct {
	SessionURL string `json:"sessionUrl"`
}
