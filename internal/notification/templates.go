package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
)

// Message is a rendered email. ID identifies the message across retries.
type Message struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

const (
	subjectCustomerConfirmed = "✅ Booking Confirmed"
	subjectAdminConfirmed    = "📥 New Booking Confirmed"
	subjectAdminConflict     = "❌ Booking Failed - Refund Issued"
	subjectCustomerRefunded  = "❌ Booking Failed – Refund Processed"
)

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"slotDate": func(d string) string {
		t, err := time.Parse(booking.DateLayout, d)
		if err != nil {
			return d
		}
		return t.Format("January 2, 2006")
	},
	"minor": func(amount int64) string {
		return fmt.Sprintf("%d.%02d", amount/100, amount%100)
	},
}

const layoutOpen = `<div style="font-family: Arial, sans-serif; padding: 20px; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 10px; background-color: %s;">`

const layoutClose = `<footer style="border-top: 1px solid #ddd; padding-top: 10px; margin-top: 20px; text-align: center; font-size: 12px; color: #aaa;">&copy; {{.Year}} All rights reserved.</footer></div>`

const slotList = `{{define "slots"}}<ul>{{range $i, $s := .}}<li><strong>Slot {{inc $i}}:</strong> {{slotDate $s.Date}} from {{$s.StartTime}} to {{$s.EndTime}}</li>{{end}}</ul>{{end}}`

var (
	customerConfirmedTmpl = mustParse("customer_confirmed", "#f9f9f9", `
<h2 style="color: #28a745;">Booking Confirmed</h2>
<p>Dear {{.Name}},</p>
<p>Your payment has been successfully received and your booking has been confirmed.</p>
<p><strong>Service:</strong> {{.Service}}</p>
<p><strong>Slot(s) Booked:</strong></p>
{{template "slots" .Slots}}
<p><strong>Total Paid:</strong> {{.Total}}</p>
<p>Thank you for choosing our service. We look forward to seeing you!</p>`)

	adminConfirmedTmpl = mustParse("admin_confirmed", "#e2e3e5", `
<h2 style="color: #007bff;">New Booking Received</h2>
<p><strong>User Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Service:</strong> {{.Service}}</p>
<p><strong>Slot(s) Booked:</strong></p>
{{template "slots" .Slots}}
<p><strong>Payment Intent:</strong> {{.PaymentIntentID}}</p>
<p>This booking has been paid and confirmed via Stripe. Please make necessary arrangements.</p>`)

	adminConflictTmpl = mustParse("admin_conflict", "#fff3cd", `
<h2 style="color: #856404;">Booking Conflict Detected</h2>
<p><strong>Customer:</strong></p>
<ul>
  <li><strong>Name:</strong> {{.Name}}</li>
  <li><strong>Email:</strong> {{.Email}}</li>
  <li><strong>Phone:</strong> {{.Phone}}</li>
</ul>
<p><strong>Service:</strong> {{.Service}}</p>
<p><strong>Attempted Slot(s):</strong></p>
{{template "slots" .Slots}}
<p><strong>Stripe Info:</strong></p>
<ul>
  <li><strong>Session ID:</strong> {{.SessionID}}</li>
  <li><strong>Payment Intent ID:</strong> {{.PaymentIntentID}}</li>
  <li><strong>Refund Amount:</strong> {{minor .RefundAmount}}</li>
</ul>
<p style="color: #856404;">The selected slots were already booked. The booking was not created, and the payment has been refunded.</p>`)

	customerRefundedTmpl = mustParse("customer_refunded", "#f9f9f9", `
<p>Hi {{.Name}},</p>
<p>Unfortunately, the selected slots are no longer available. A full refund has been issued.</p>
<ul>
  <li><strong>Refund Amount:</strong> {{minor .RefundAmount}}</li>
  <li><strong>Payment Intent:</strong> {{.PaymentIntentID}}</li>
</ul>
<p>You can try booking a different time slot.</p>`)
)

func mustParse(name, background, body string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(fmt.Sprintf(layoutOpen, background) + body + layoutClose + slotList))
}

type view struct {
	Year            int
	Name            string
	Email           string
	Phone           string
	Service         string
	Slots           []booking.Slot
	Total           string
	PaymentIntentID string
	SessionID       string
	RefundAmount    int64
}

func render(t *template.Template, v view) (string, error) {
	if v.Year == 0 {
		v.Year = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func serviceLabel(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

// ConfirmationEmails renders the customer and operator messages for a
// confirmed booking. A blank address skips that recipient.
func ConfirmationEmails(c Confirmation, adminEmail string) ([]Message, error) {
	v := view{
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Service:         serviceLabel(c.ServiceTitle, c.ServiceID),
		Slots:           c.Slots,
		Total:           c.TotalAmount.StringFixed(2),
		PaymentIntentID: c.PaymentIntentID,
	}

	var out []Message
	if adminEmail != "" {
		html, err := render(adminConfirmedTmpl, v)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{ID: "confirmed:admin:" + c.PaymentIntentID, To: adminEmail, Subject: subjectAdminConfirmed, HTML: html})
	}
	if c.Email != "" {
		html, err := render(customerConfirmedTmpl, v)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{ID: "confirmed:customer:" + c.PaymentIntentID, To: c.Email, Subject: subjectCustomerConfirmed, HTML: html})
	}
	return out, nil
}

// RefundEmails renders the operator conflict alert and the customer refund notice.
func RefundEmails(r RefundNotice, adminEmail string) ([]Message, error) {
	v := view{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Service:         serviceLabel(r.ServiceTitle, r.ServiceID),
		Slots:           r.Slots,
		PaymentIntentID: r.PaymentIntentID,
		SessionID:       r.SessionID,
		RefundAmount:    r.RefundAmount,
	}

	var out []Message
	if adminEmail != "" {
		html, err := render(adminConflictTmpl, v)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{ID: "refunded:admin:" + r.PaymentIntentID, To: adminEmail, Subject: subjectAdminConflict, HTML: html})
	}
	if r.Email != "" {
		html, err := render(customerRefundedTmpl, v)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{ID: "refunded:customer:" + r.PaymentIntentID, To: r.Email, Subject: subjectCustomerRefunded, HTML: html})
	}
	return out, nil
}
