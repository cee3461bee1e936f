// internal/models/conversation.go
package models

import "time"

// GeoPoint is an optional client-reported location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Utterance is one user message as received.
type Utterance struct {
	Text     string    `json:"message"`
	UserID   string    `json:"userId"`
	Location *GeoPoint `json:"location,omitempty"`
}

// ConversationState is the short-term memory kept per user.
type ConversationState struct {
	LastIntent *Intent      `json:"lastIntent,omitempty"`
	LastResult *QueryResult `json:"lastResult,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// IsZero reports whether no turn has been recorded yet.
func (s ConversationState) IsZero() bool {
	return s.LastIntent == nil && s.LastResult == nil
}
