package models

// User is the profile record created on first sign-in and synced from the
// identity provider. Stored as JSON under user:<id> with an email index at
// user:email:<email>.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// FriendRequest is the realtime payload for an incoming request. The request
// itself has no record of its own: it exists as the sender's ID inside the
// recipient's incoming_friend_requests set.
type FriendRequest struct {
	SenderID    string `json:"senderId"`
	SenderEmail string `json:"senderEmail"`
}
