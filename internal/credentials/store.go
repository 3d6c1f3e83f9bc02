package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// ProfileName is the single profile section every Install writes.
// Prowler is invoked without --profile and therefore reads "default".
const ProfileName = "default"

// Credentials file key names, as the AWS SDKs and CLI expect them.
const (
	keyAccessKeyID     = "aws_access_key_id"
	keySecretAccessKey = "aws_secret_access_key"
)

// Store installs credential material into the slot the scanner reads from.
//
// Design decision: This is a narrow interface rather than ad-hoc file I/O in
// the scan loop so the single-writer invariant lives in one place and tests
// can substitute an in-memory fake without touching the real home directory.
type Store interface {
	// Install overwrites the store with exactly one default profile
	// holding the two supplied values. The write is complete (file closed)
	// when Install returns.
	Install(accessKeyID, secretAccessKey string) error

	// Read returns the store's current contents for operator verification.
	Read() (string, error)

	// Path returns the location of the underlying credential slot,
	// for log messages.
	Path() string
}

// FileStore implements Store against an AWS credentials file on disk.
type FileStore struct {
	// path is the credentials file location, typically ~/.aws/credentials.
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Install writes the credentials file with a single [default] profile.
//
// The parent directory is created if absent (0700, idempotent). The file is
// written to a temporary sibling and renamed into place so a crash mid-write
// never leaves a truncated credentials file, and the previous content is
// replaced in full: profiles other than default do not survive an Install.
func (f *FileStore) Install(accessKeyID, secretAccessKey string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	file := ini.Empty()
	section, err := file.NewSection(ProfileName)
	if err != nil {
		return fmt.Errorf("failed to create default profile section: %w", err)
	}
	if _, err := section.NewKey(keyAccessKeyID, accessKeyID); err != nil {
		return fmt.Errorf("failed to set access key: %w", err)
	}
	if _, err := section.NewKey(keySecretAccessKey, secretAccessKey); err != nil {
		return fmt.Errorf("failed to set secret key: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := file.WriteTo(tmp); err != nil {
		_ = tmp.Close()       //nolint:errcheck // Best effort cleanup
		_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to close credentials file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to set credentials file mode: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}

// Read returns the current credentials file contents.
// It is used only for read-after-write verification logging, never for
// decision logic; a Read failure after a successful Install does not undo
// or fail the install.
func (f *FileStore) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}
	return string(data), nil
}

// Path returns the credentials file location.
func (f *FileStore) Path() string {
	return f.path
}

// init disables go-ini's key alignment so the written file matches the
// unpadded "key = value" layout the AWS CLI itself produces.
func init() {
	ini.PrettyFormat = false
}
