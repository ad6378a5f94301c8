// Package settings persists user preferences for the CLI between runs:
// the last used DICOMweb server, the server URL history and the local
// storage location.
package settings

import (
	"os"
	"path/filepath"
)

const maxServerURLHistory = 10

// Settings holds the persisted user preferences.
type Settings struct {
	ServerURL           string   `json:"serverUrl"`
	ServerURLHistory    []string `json:"serverUrlHistory"`
	StoragePath         string   `json:"storagePath"`
	UseCache            bool     `json:"useCache"`
	DownloadParallelism int      `json:"downloadParallelism"`
}

// NewDefaultSettings returns the settings used before the user saved any.
func NewDefaultSettings() *Settings {
	return &Settings{
		UseCache:            true,
		DownloadParallelism: 1,
	}
}

// PushServerURL records url as the current server and moves it to the front
// of the history, deduplicated and capped at ten entries.
func (s *Settings) PushServerURL(url string) {
	if url == "" {
		return
	}

	s.ServerURL = url

	history := make([]string, 0, len(s.ServerURLHistory)+1)
	history = append(history, url)
	for _, u := range s.ServerURLHistory {
		if u != url {
			history = append(history, u)
		}
	}
	if len(history) > maxServerURLHistory {
		history = history[:maxServerURLHistory]
	}
	s.ServerURLHistory = history
}

// DefaultPath returns the settings file location under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dicomweb-browser", "settings.json"), nil
}

// DefaultStoragePath returns the storage root used when none is configured.
func DefaultStoragePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dicomweb-browser"), nil
}
