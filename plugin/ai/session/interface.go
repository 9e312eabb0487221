// Package session keeps the short conversation history the assistant needs
// for tone matching and recency tagging.
package session

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn represents one conversation message.
// Timestamp is RFC 3339 text; turns with an empty or unparsable timestamp
// are kept but ignored by recency tagging.
type Turn struct {
	Role      string `json:"role"` // "user" | "assistant" | "system"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
