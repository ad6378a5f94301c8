// Package cache stores DICOMweb query responses on disk so repeated browsing
// does not hit the server. Entries are JSON files named by the md5 of their
// cache key; the file modification time doubles as the retrieval timestamp.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

type fileCache struct {
	dir    string
	logger logger.Logger
}

// NewFileCache creates an on-disk response cache rooted at dir.
func NewFileCache(dir string, logger logger.Logger) (dicom.ResponseCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	return &fileCache{
		dir:    dir,
		logger: logger,
	}, nil
}

func cacheKey(parts ...string) string {
	key := ""
	for i, part := range parts {
		if i > 0 {
			key += "|"
		}
		key += part
	}
	// #nosec G401 -- md5 only names cache files, it has no security use
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:]) + ".json"
}

func (c *fileCache) studiesPath(serverURL string) string {
	return filepath.Join(c.dir, cacheKey(serverURL))
}

func (c *fileCache) seriesPath(serverURL, studyUID string) string {
	return filepath.Join(c.dir, cacheKey(serverURL, studyUID))
}

// read decodes one cache file into out. Any failure is a miss.
func (c *fileCache) read(path string, out interface{}) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("Failed to read cache entry ", path, ": ", err)
		return time.Time{}, false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Ignoring corrupt cache entry ", path)
		return time.Time{}, false
	}

	return info.ModTime(), true
}

func (c *fileCache) write(path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

func (c *fileCache) GetStudies(serverURL string) ([]*dicom.RemoteStudy, time.Time, bool) {
	var studies []*dicom.RemoteStudy
	retrievedAt, ok := c.read(c.studiesPath(serverURL), &studies)
	if !ok {
		return nil, time.Time{}, false
	}
	return studies, retrievedAt, true
}

func (c *fileCache) PutStudies(serverURL string, studies []*dicom.RemoteStudy) error {
	if err := c.write(c.studiesPath(serverURL), studies); err != nil {
		return err
	}
	c.logger.Info("Cached study list for server ", serverURL)
	return nil
}

func (c *fileCache) GetSeries(serverURL, studyUID string) ([]*dicom.RemoteSeries, time.Time, bool) {
	var series []*dicom.RemoteSeries
	retrievedAt, ok := c.read(c.seriesPath(serverURL, studyUID), &series)
	if !ok {
		return nil, time.Time{}, false
	}
	return series, retrievedAt, true
}

func (c *fileCache) PutSeries(serverURL, studyUID string, series []*dicom.RemoteSeries) error {
	if err := c.write(c.seriesPath(serverURL, studyUID), series); err != nil {
		return err
	}
	c.logger.Info("Cached series list for study ", studyUID)
	return nil
}

func (c *fileCache) InvalidateStudies(serverURL string) error {
	return c.remove(c.studiesPath(serverURL))
}

func (c *fileCache) InvalidateSeries(serverURL, studyUID string) error {
	return c.remove(c.seriesPath(serverURL, studyUID))
}

func (c *fileCache) remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

func (c *fileCache) Clear() error {
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	for _, entry := range entries {
		if err := os.Remove(entry); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache entry %s: %w", entry, err)
		}
	}

	c.logger.Info("Cleared ", len(entries), " cached server responses")
	return nil
}
