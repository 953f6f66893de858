package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/itish2003/simplybot/models"
)

// ErrFileNotFound is returned when a managed file does not exist.
var ErrFileNotFound = errors.New("file not found")

// FileActions manages raw uploaded files in the upload directory.
type FileActions struct {
	UploadDir string // absolute path
}

func NewFileActions(uploadDir string) (*FileActions, error) {
	absPath, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for %s: %w", uploadDir, err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", absPath, err)
	}
	return &FileActions{UploadDir: absPath}, nil
}

// sanitizeFilename keeps the file inside the upload directory.
func (fa *FileActions) sanitizeFilename(filename string) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	cleanPath := filepath.Join(fa.UploadDir, base)
	if !strings.HasPrefix(cleanPath, fa.UploadDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filename, attempts to escape upload directory")
	}
	return cleanPath, nil
}

// Save writes data under filename, replacing any existing file.
func (fa *FileActions) Save(filename string, data []byte) (*models.FileInfo, error) {
	path, err := fa.sanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save file '%s': %w", filename, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file '%s': %w", filename, err)
	}
	return fileInfo(path, info), nil
}

// List returns supported files, newest first.
func (fa *FileActions) List() (*models.FileListResponse, error) {
	entries, err := os.ReadDir(fa.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload dir: %w", err)
	}

	resp := &models.FileListResponse{Files: []models.FileInfo{}}
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fi := fileInfo(filepath.Join(fa.UploadDir, e.Name()), info)
		resp.Files = append(resp.Files, *fi)
		resp.TotalSize += fi.Size
	}
	sort.SliceStable(resp.Files, func(i, j int) bool {
		return resp.Files[i].CreatedAt.After(resp.Files[j].CreatedAt)
	})
	resp.TotalCount = len(resp.Files)
	return resp, nil
}

// Delete removes filename from the upload directory.
func (fa *FileActions) Delete(filename string) error {
	path, err := fa.sanitizeFilename(filename)
	if err != nil {
		return ErrFileNotFound
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file '%s': %w", filename, err)
	}
	return nil
}

// fileInfo uses the modification time as the creation time; most
// filesystems do not expose birth time portably.
func fileInfo(path string, info os.FileInfo) *models.FileInfo {
	return &models.FileInfo{
		Filename:    info.Name(),
		Size:        info.Size(),
		CreatedAt:   info.ModTime(),
		ContentType: ContentTypeFor(info.Name()),
		Path:        path,
	}
}
