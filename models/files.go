package models

import "time"

// FileInfo describes one file in the upload directory.
type FileInfo struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"`
}

type FileListResponse struct {
	Files      []FileInfo `json:"files"`
	TotalCount int        `json:"total_count"`
	TotalSize  int64      `json:"total_size"`
}

type FileUploadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	File    FileInfo `json:"file"`
}
