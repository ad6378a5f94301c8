//go:build unit
// +build unit

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatabaseSettingsValidation(t *testing.T) {
	tests := []struct {
		name          string
		settings      *DatabaseSettings
		expectedError bool
	}{
		{
			name: "valid postgres settings",
			settings: &DatabaseSettings{
				Type: PostgresDbType,
				DSN:  "host=localhost user=postgres password=postgres port=5432 sslmode=disable",
				Name: "dicom_index",
			},
			expectedError: false,
		},
		{
			name: "valid sqlite settings",
			settings: &DatabaseSettings{
				Type: SqliteDbType,
				DSN:  "/var/lib/dicomweb-browser/index.sqlite",
			},
			expectedError: false,
		},
		{
			name: "sqlite without DSN falls back to in-memory",
			settings: &DatabaseSettings{
				Type: SqliteDbType,
			},
			expectedError: false,
		},
		{
			name: "missing type",
			settings: &DatabaseSettings{
				DSN:  "host=localhost user=postgres",
				Name: "dicom_index",
			},
			expectedError: true,
		},
		{
			name: "unsupported type",
			settings: &DatabaseSettings{
				Type: "mysql",
				DSN:  "user:password@tcp(localhost:3306)/dbname",
				Name: "dicom_index",
			},
			expectedError: true,
		},
		{
			name: "postgres missing DSN",
			settings: &DatabaseSettings{
				Type: PostgresDbType,
				Name: "dicom_index",
			},
			expectedError: true,
		},
		{
			name: "postgres missing name",
			settings: &DatabaseSettings{
				Type: PostgresDbType,
				DSN:  "host=localhost user=postgres password=postgres port=5432 sslmode=disable",
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validate the struct
			err := tt.settings.Validate()

			if tt.expectedError {
				// Expect an error when validation fails
				require.Error(t, err)
			} else {
				// Expect no error when validation passes
				require.NoError(t, err)
			}
		})
	}
}
