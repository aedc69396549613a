package models

import (
	"time"
)

// DefaultTitle is the placeholder title of a conversation that has not yet
// seen a user message.
const DefaultTitle = "New conversation"

type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageAgent  MessageType = "agent"
	MessageSystem MessageType = "system"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageUser, MessageAgent, MessageSystem:
		return true
	}
	return false
}

type Conversation struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Messages        []ChatMessage `json:"messages"`
	Preview         string        `json:"preview,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ServerSessionID string        `json:"server_session_id,omitempty"`
}

type ChatMessage struct {
	ID          string        `json:"id"`
	Type        MessageType   `json:"type"`
	Content     string        `json:"content"`
	Images      []ImageResult `json:"images,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`

	// Only set on system messages materialized from session events.
	Event        string `json:"event,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	PointcloudID string `json:"pointcloud_id,omitempty"`
	ViewURL      string `json:"view_url,omitempty"`
}

type ConversationListItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Preview         string    `json:"preview"`
	MessageCount    int       `json:"message_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ServerSessionID string    `json:"server_session_id,omitempty"`
}

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ConversationFilters narrows and orders ListConversations. The zero value
// lists everything by updated_at, newest first.
type ConversationFilters struct {
	Search    string
	SortBy    SortField
	SortOrder SortOrder
}

// ConversationUpdate holds the fields a caller may change on an existing
// conversation. Nil fields are left untouched.
type ConversationUpdate struct {
	Title           *string
	Preview         *string
	ServerSessionID *string
}

type SearchResult struct {
	Conversation ConversationListItem `json:"conversation"`
	MessageID    string               `json:"message_id"`
	Snippet      string               `json:"snippet"`
	Score        float64              `json:"score"`
}

type ConversationStats struct {
	TotalConversations int                 `json:"total_conversations"`
	TotalMessages      int                 `json:"total_messages"`
	TotalImages        int                 `json:"total_images"`
	TypeBreakdown      map[MessageType]int `json:"type_breakdown"`
	LinkedSessions     int                 `json:"linked_sessions"`
}
