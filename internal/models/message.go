package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Message is a single chat message. Immutable once written; stored in the
// chat's sorted set with the timestamp as score.
type Message struct {
	ID        string `json:"id" validate:"required"`
	SenderID  string `json:"senderId" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"`
}

// Validate checks the message shape before it is published or persisted.
func (m Message) Validate() error {
	return validate.Struct(m)
}

// MessageNotification is the payload delivered on the counterpart's personal
// chats channel so the client can render a notification without another fetch.
type MessageNotification struct {
	Message
	SenderName string `json:"senderName"`
	SenderImg  string `json:"senderImg"`
}
