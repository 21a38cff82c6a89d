package payment

// EventCheckoutSessionCompleted is the only event type that confirms a booking.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event is a verified payment provider notification. Session fields are only
// populated for checkout.session.completed.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	CustomerEmail   string
	Metadata        map[string]string
}
