package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "betpulse/internal/errors"
)

// FileInfo describes one discovered batch file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds batch export files in the inbox directory.
type Discovery struct {
	inboxDir string
}

// NewDiscovery creates a discovery instance rooted at the inbox directory.
func NewDiscovery(inboxDir string) *Discovery {
	return &Discovery{inboxDir: inboxDir}
}

// batchFile reports whether a directory entry is a readable batch export.
// Office lock files ("~$...") and dotfiles are skipped.
func batchFile(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// FindBatchFiles returns every batch export in the inbox, sorted by file
// name so processing order is deterministic across runs. A missing inbox is
// not an error; it just means there is nothing to ingest.
func (d *Discovery) FindBatchFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.inboxDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read inbox directory", err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !batchFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(d.inboxDir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}
