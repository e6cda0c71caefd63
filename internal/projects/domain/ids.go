package domain

import "github.com/google/uuid"

// WelcomeMessageID is the fixed id of the first assistant message of a session.
const WelcomeMessageID = "welcome"

// NewMessageID generates a chat message id unique within a session.
func NewMessageID() string {
	return uuid.NewString()
}
