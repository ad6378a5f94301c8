package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RemoteSettings holds the DICOMweb client settings shared by the REST API and CLI
type RemoteSettings struct {
	ServerURL           string  `mapstructure:"server_url" validate:"omitempty,url"`
	AuthProfile         string  `mapstructure:"auth_profile" validate:"omitempty,oneof=plain bearer basic google kheops"`
	Token               string  `mapstructure:"token"`
	Username            string  `mapstructure:"username"`
	Password            string  `mapstructure:"password"`
	PageSize            int     `mapstructure:"page_size" validate:"omitempty,gte=1,lte=5000"`
	RetryAttempts       int     `mapstructure:"retry_attempts" validate:"omitempty,gte=1,lte=10"`
	RetryDelaySeconds   int     `mapstructure:"retry_delay_seconds" validate:"omitempty,gte=1,lte=60"`
	RequestsPerSecond   float64 `mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
	RequestBurst        int     `mapstructure:"request_burst" validate:"omitempty,gte=1"`
	DownloadParallelism int     `mapstructure:"download_parallelism" validate:"omitempty,gte=1,lte=16"`
}

// Validate checks that all fields in RemoteSettings are valid
func (s *RemoteSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for RemoteSettings: %w", err)
	}

	// Additional validation for credential-carrying profiles
	switch s.AuthProfile {
	case AuthProfileBearer:
		if s.Token == "" {
			return fmt.Errorf("token is required for the bearer auth profile")
		}
	case AuthProfileBasic:
		if s.Username == "" {
			return fmt.Errorf("username is required for the basic auth profile")
		}
	case AuthProfileKheops:
		if s.Token == "" {
			return fmt.Errorf("token is required for the kheops auth profile")
		}
	}

	return nil
}
