package models

import (
	"fmt"
	"sort"
	"strings"
)

// ChatIDSeparator joins the two participant IDs of a chat. It is chosen so
// the store's key separator (":") never appears inside a chat ID.
const ChatIDSeparator = "--"

// ChatID builds the deterministic identifier for the chat between two users.
// The IDs are sorted lexicographically first, so both participants derive the
// same identifier no matter who initiates.
func ChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ChatIDSeparator + ids[1]
}

// ParseChatID splits a chat identifier back into its two participant IDs.
func ParseChatID(chatID string) (string, string, error) {
	parts := strings.Split(chatID, ChatIDSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed chat id %q", chatID)
	}
	return parts[0], parts[1], nil
}

// ChannelName maps a store key to a broker channel name. The broker rejects
// ":" in channel names, so it is substituted with "__".
func ChannelName(key string) string {
	return strings.ReplaceAll(key, ":", "__")
}
