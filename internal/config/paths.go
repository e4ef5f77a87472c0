package config

import (
	"os"
	"path/filepath"
)

// PathsConfig contains the file system layout for a run. All relative paths
// are resolved against DataDir.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	InboxDir   string `yaml:"inbox_dir" envconfig:"INBOX_DIR" default:"inbox"`
	ArchiveDir string `yaml:"archive_dir" envconfig:"ARCHIVE_DIR" default:"archive"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	BackupsDir string `yaml:"backups_dir" envconfig:"BACKUPS_DIR" default:"backups"`
	LedgerFile string `yaml:"ledger_file" envconfig:"LEDGER_FILE" default:"ledger.csv"`
}

// DefaultPaths returns the default path layout.
func DefaultPaths() PathsConfig {
	return PathsConfig{
		DataDir:    "data",
		InboxDir:   "inbox",
		ArchiveDir: "archive",
		ReportsDir: "reports",
		BackupsDir: "backups",
		LedgerFile: "ledger.csv",
	}
}

// resolve joins p with the data directory unless p is already absolute.
func (c PathsConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// InboxPath returns the directory watched for raw export batches.
func (c PathsConfig) InboxPath() string { return c.resolve(c.InboxDir) }

// ArchivePath returns the directory consumed batches are moved into.
func (c PathsConfig) ArchivePath() string { return c.resolve(c.ArchiveDir) }

// ReportsPath returns the directory report tables are written to.
func (c PathsConfig) ReportsPath() string { return c.resolve(c.ReportsDir) }

// BackupsPath returns the directory ledger backups are written to.
func (c PathsConfig) BackupsPath() string { return c.resolve(c.BackupsDir) }

// LedgerPath returns the master ledger file path.
func (c PathsConfig) LedgerPath() string { return c.resolve(c.LedgerFile) }

// EnsureDirectories creates every directory the pipeline writes to.
func (c PathsConfig) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.InboxPath(),
		c.ArchivePath(),
		c.ReportsPath(),
		c.BackupsPath(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
