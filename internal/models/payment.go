package models

import (
	"encoding/json"
	"strings"
)

// Provider event types that qualify for enrollment processing.
const (
	EventTypePayment     = "payment"
	EventTypePreapproval = "preapproval"

	PaymentStatusApproved       = "approved"
	PreapprovalStatusAuthorized = "authorized"
)

// ProviderEvent is the notification body the payment provider posts to the
// webhook endpoint.
type ProviderEvent struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Qualifies reports whether the event type denotes a finalized payment or
// subscription and therefore warrants a provider lookup.
func (e ProviderEvent) Qualifies() bool {
	switch {
	case e.Type == EventTypePayment:
		return true
	case strings.HasPrefix(e.Type, EventTypePreapproval):
		// subscription flows notify as "preapproval" or "subscription_preapproval"
		return true
	case strings.HasPrefix(e.Type, "subscription_"):
		return strings.Contains(e.Type, EventTypePreapproval)
	default:
		return false
	}
}

// Subscription reports whether the event belongs to the preapproval flow.
func (e ProviderEvent) Subscription() bool {
	return e.Type != EventTypePayment && e.Qualifies()
}

// PaymentMetadata carries the student data attached at checkout time. The
// course list is comma-joined because the provider flattens metadata values
// to strings.
type PaymentMetadata struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Whatsapp string `json:"whatsapp"`
	Courses  string `json:"cursos"`
}

// CourseNames splits the comma-joined course list, dropping empty entries.
func (m PaymentMetadata) CourseNames() []string {
	parts := strings.Split(m.Courses, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// Payment is the authoritative payment record fetched from the provider.
type Payment struct {
	// provider payment ids arrive as JSON numbers
	ID       json.Number     `json:"id"`
	Status   string          `json:"status"`
	Metadata PaymentMetadata `json:"metadata"`
}

// Approved reports whether the payment reached a finalized approved state.
func (p Payment) Approved() bool {
	return p.Status == PaymentStatusApproved
}

// Preapproval is the authoritative subscription record fetched from the
// provider.
type Preapproval struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Reason   string          `json:"reason"`
	Metadata PaymentMetadata `json:"metadata"`
}

// Authorized reports whether the subscription is active and chargeable.
func (p Preapproval) Authorized() bool {
	return p.Status == PreapprovalStatusAuthorized || p.Status == PaymentStatusApproved
}
