// Package persistence provides database repository implementations.
// It uses GORM as the ORM layer to interact with databases, managing
// the local DICOM index (studies, series, instances) and the scene
// registry of loaded volumes. The package includes validation and
// logging for traceability and error handling.
package persistence
