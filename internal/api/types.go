package api

import (
	"github.com/jasperwreed/pixel-chat/internal/models"
)

type ChatRequest struct {
	Query          string   `json:"query"`
	SessionID      string   `json:"session_id,omitempty"`
	TopK           int      `json:"top_k,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
}

// ChatResponse is a validated chat answer: SessionID and Answer are always
// present.
type ChatResponse struct {
	SessionID      string
	Answer         string
	Intent         string
	OptimizedQuery string
	Images         []models.ImageResult
	Total          int
	Suggestions    []string
	Timestamp      string
}

type chatResponseWire struct {
	SessionID      *string `json:"session_id"`
	Answer         *string `json:"answer"`
	Intent         string  `json:"intent"`
	OptimizedQuery string  `json:"optimized_query"`
	Results        *struct {
		Total  int                  `json:"total"`
		Images []models.ImageResult `json:"images"`
	} `json:"results"`
	Suggestions []string `json:"suggestions"`
	Timestamp   string   `json:"timestamp"`
}

// SessionEvent is a server-originated notification attached to a session.
type SessionEvent struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	Content      string `json:"content"`
	PointcloudID string `json:"pointcloud_id,omitempty"`
	ViewURL      string `json:"view_url,omitempty"`
}

type sessionEventsWire struct {
	Events []SessionEvent `json:"events"`
}

type createSessionWire struct {
	Status    string  `json:"status"`
	SessionID *string `json:"session_id"`
	Message   string  `json:"message"`
}

// SearchParams is the body of the combined search endpoint.
type SearchParams struct {
	QueryText      string   `json:"query_text,omitempty"`
	QueryImageID   string   `json:"query_image_id,omitempty"`
	QueryImageURL  string   `json:"query_image_url,omitempty"`
	Instruction    string   `json:"instruction,omitempty"`
	TopK           int      `json:"top_k,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
	FilterTags     []string `json:"filter_tags,omitempty"`
}

type TextSearchOptions struct {
	TopK           int
	ScoreThreshold *float64
	Tags           []string
}

type SearchResponse struct {
	Status    string               `json:"status"`
	Message   string               `json:"message"`
	Data      []models.ImageResult `json:"data"`
	QueryType string               `json:"query_type"`
	Total     int                  `json:"total"`
}

type UploadOptions struct {
	// AutoIndex asks the backend to embed the image after storing it.
	AutoIndex   bool
	Tags        []string
	Description string
}

type UploadedImage struct {
	models.StoredImage
	FullPath  string `json:"full_path"`
	Indexed   any    `json:"indexed"`
	IndexMode string `json:"index_mode"`
}

type UploadResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Data    UploadedImage `json:"data"`
}

type ListImagesOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

type ImageListResponse struct {
	Status   string               `json:"status"`
	Message  string               `json:"message"`
	Data     []models.StoredImage `json:"data"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}
