package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// StorageSettings holds the root directory under which the browser keeps all
// local state: the managed DICOM file store, the server response cache, the
// download staging area and the default SQLite index file.
type StorageSettings struct {
	Root string `mapstructure:"root" validate:"required"`
}

// Validate checks that all fields in StorageSettings are valid
func (s *StorageSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for StorageSettings: %w", err)
	}

	return nil
}

// DicomDir returns the managed store for indexed DICOM files.
func (s *StorageSettings) DicomDir() string {
	return filepath.Join(s.Root, "dicom")
}

// CacheDir returns the directory holding cached server responses.
func (s *StorageSettings) CacheDir() string {
	return filepath.Join(s.Root, "ServerResponseCache")
}

// StagingDir returns the scratch directory downloads land in before indexing.
func (s *StorageSettings) StagingDir() string {
	return filepath.Join(s.Root, "staging")
}

// DatabaseFile returns the default SQLite index location.
func (s *StorageSettings) DatabaseFile() string {
	return filepath.Join(s.Root, "dicomweb-browser.sqlite")
}
