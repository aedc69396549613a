package models

// ImageResult is an image returned by a search or chat response. PreviewURL
// is filled in on the client from the image id.
type ImageResult struct {
	ID         string        `json:"id"`
	Score      float64       `json:"score"`
	Metadata   ImageMetadata `json:"metadata"`
	PreviewURL string        `json:"preview_url,omitempty"`
}

type ImageMetadata struct {
	Filename    string   `json:"filename"`
	FilePath    string   `json:"file_path"`
	FileSize    int64    `json:"file_size,omitempty"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	Format      string   `json:"format,omitempty"`
	CreatedAt   string   `json:"created_at"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
}

// StoredImage is an entry of the remote gallery.
type StoredImage struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	FilePath  string `json:"file_path"`
	FileSize  int64  `json:"file_size"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url"`
}
