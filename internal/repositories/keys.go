package repositories

// Store key naming conventions. There is no schema enforcement; these
// functions are the single place the key layout is spelled out.

func userKey(userID string) string {
	return "user:" + userID
}

func userEmailKey(email string) string {
	return "user:email:" + email
}

// FriendsKey is exported because the key doubles as the base of the user's
// personal friends channel name.
func FriendsKey(userID string) string {
	return "user:" + userID + ":friends"
}

// IncomingRequestsKey is the set of sender IDs with a pending request to userID.
func IncomingRequestsKey(userID string) string {
	return "user:" + userID + ":incoming_friend_requests"
}

// ChatsKey is the base of the user's personal chats channel name.
func ChatsKey(userID string) string {
	return "user:" + userID + ":chats"
}

// ChatKey is the base of a chat's channel name.
func ChatKey(chatID string) string {
	return "chat:" + chatID
}

// MessagesKey is the sorted set holding a chat's messages, scored by timestamp.
func MessagesKey(chatID string) string {
	return "chat:" + chatID + ":messages"
}
