package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "betpulse/internal/errors"
)

// Archiver moves processed batch files out of the inbox into a dated
// archive directory so the next run never re-reads them.
type Archiver struct {
	logger     *slog.Logger
	archiveDir string
	now        func() time.Time
}

// NewArchiver creates an archiver rooted at the archive directory.
func NewArchiver(logger *slog.Logger, archiveDir string) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{logger: logger, archiveDir: archiveDir, now: time.Now}
}

// Archive moves one processed file into archive/<YYYY-MM-DD>/. When a file
// of the same name was already archived that day, a numeric suffix keeps
// both copies.
func (a *Archiver) Archive(srcPath string) (string, error) {
	dstDir := filepath.Join(a.archiveDir, a.now().UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create archive directory", err)
	}

	dstPath := a.uniquePath(dstDir, filepath.Base(srcPath))
	if err := moveFile(srcPath, dstPath); err != nil {
		return "", apperrors.NewStorageError("failed to archive batch file", err)
	}

	a.logger.Info("batch archived",
		slog.String("src", srcPath),
		slog.String("dst", dstPath))
	return dstPath, nil
}

// uniquePath appends "-1", "-2", ... before the extension until the name is
// free in the destination directory.
func (a *Archiver) uniquePath(dir, name string) string {
	dst := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return dst
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}

// moveFile renames when possible and falls back to copy plus delete when
// the inbox and archive live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	if err := dstFile.Sync(); err != nil {
		return err
	}
	return os.Remove(src)
}
