package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Upload sends a local image file to the gallery. Indexing, when requested,
// runs asynchronously on the backend.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (*UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fields := [][2]string{
		{"auto_index", strconv.FormatBool(opts.AutoIndex)},
		{"async_index", "true"},
	}
	if len(opts.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(opts.Tags, ",")})
	}
	if opts.Description != "" {
		fields = append(fields, [2]string{"description", opts.Description})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var resp UploadResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/storage/upload",
		body:        &buf,
		contentType: writer.FormDataContentType(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, malformed("upload response without image id")
	}

	return &resp, nil
}

// ListImages returns one page of the gallery. Zero options mean page 1,
// 20 per page, newest first.
func (c *Client) ListImages(ctx context.Context, opts ListImagesOptions) (*ImageListResponse, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(opts.Page))
	params.Set("page_size", strconv.Itoa(opts.PageSize))
	params.Set("sort_by", opts.SortBy)
	params.Set("sort_order", opts.SortOrder)

	var resp ImageListResponse
	if err := c.getJSON(ctx, "/storage/images", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteImage(ctx context.Context, imageID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/storage/images/" + url.PathEscape(imageID),
	}, nil)
}
