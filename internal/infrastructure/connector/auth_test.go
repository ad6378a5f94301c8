//go:build unit
// +build unit

package connector

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, settings *config.RemoteSettings) *authenticator {
	t.Helper()
	return newAuthenticator(settings, testutil.SetupTestLogger(t))
}

func TestAuthenticatorResolveProfiles(t *testing.T) {
	tests := []struct {
		name            string
		settings        *config.RemoteSettings
		serverURL       string
		expectedProfile string
		expectedBaseURL string
		expectedToken   string
	}{
		{
			name:            "plain by default",
			settings:        &config.RemoteSettings{},
			serverURL:       "https://dicom.example.org/rs/",
			expectedProfile: config.AuthProfilePlain,
			expectedBaseURL: "https://dicom.example.org/rs",
		},
		{
			name:            "google detected from host",
			settings:        &config.RemoteSettings{},
			serverURL:       "https://healthcare.googleapis.com/v1/projects/p/locations/l/datasets/d/dicomStores/s/dicomWeb",
			expectedProfile: config.AuthProfileGoogle,
			expectedBaseURL: "https://healthcare.googleapis.com/v1/projects/p/locations/l/datasets/d/dicomStores/s/dicomWeb",
		},
		{
			name:            "kheops detected and viewer URL rewritten",
			settings:        &config.RemoteSettings{},
			serverURL:       "https://demo.kheops.online/view/TfYXwbKAW7JYbAgZ7MyISf",
			expectedProfile: config.AuthProfileKheops,
			expectedBaseURL: "https://demo.kheops.online/api",
			expectedToken:   "TfYXwbKAW7JYbAgZ7MyISf",
		},
		{
			name:            "explicit profile overrides detection",
			settings:        &config.RemoteSettings{AuthProfile: config.AuthProfileBearer, Token: "abc"},
			serverURL:       "https://healthcare.googleapis.com/v1/things/dicomWeb",
			expectedProfile: config.AuthProfileBearer,
			expectedBaseURL: "https://healthcare.googleapis.com/v1/things/dicomWeb",
			expectedToken:   "abc",
		},
		{
			name:            "kheops with configured token keeps URL",
			settings:        &config.RemoteSettings{AuthProfile: config.AuthProfileKheops, Token: "tok"},
			serverURL:       "https://pacs.example.org/api",
			expectedProfile: config.AuthProfileKheops,
			expectedBaseURL: "https://pacs.example.org/api",
			expectedToken:   "tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuthenticator(t, tt.settings)

			ep, err := auth.resolve(tt.serverURL)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedProfile, ep.profile)
			assert.Equal(t, tt.expectedBaseURL, ep.baseURL)
			assert.Equal(t, tt.expectedToken, ep.token)
		})
	}
}

func TestAuthenticatorResolveErrors(t *testing.T) {
	tests := []struct {
		name      string
		settings  *config.RemoteSettings
		serverURL string
	}{
		{
			name:      "missing scheme",
			settings:  &config.RemoteSettings{},
			serverURL: "dicom.example.org/rs",
		},
		{
			name:      "bearer without token",
			settings:  &config.RemoteSettings{AuthProfile: config.AuthProfileBearer},
			serverURL: "https://dicom.example.org/rs",
		},
		{
			name:      "basic without username",
			settings:  &config.RemoteSettings{AuthProfile: config.AuthProfileBasic},
			serverURL: "https://dicom.example.org/rs",
		},
		{
			name:      "kheops without viewer URL or token",
			settings:  &config.RemoteSettings{AuthProfile: config.AuthProfileKheops},
			serverURL: "https://pacs.example.org/api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuthenticator(t, tt.settings)

			_, err := auth.resolve(tt.serverURL)
			require.Error(t, err)
		})
	}
}

func TestAuthenticatorApplyHeaders(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer sets authorization header", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{AuthProfile: config.AuthProfileBearer, Token: "abc"})
		ep, err := auth.resolve("https://dicom.example.org/rs")
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, ep.baseURL+"/studies", nil)
		require.NoError(t, err)
		require.NoError(t, auth.apply(ctx, req, ep))

		assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	})

	t.Run("basic sets credentials", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{
			AuthProfile: config.AuthProfileBasic,
			Username:    "orthanc",
			Password:    "secret",
		})
		ep, err := auth.resolve("https://dicom.example.org/rs")
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, ep.baseURL+"/studies", nil)
		require.NoError(t, err)
		require.NoError(t, auth.apply(ctx, req, ep))

		username, password, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "orthanc", username)
		assert.Equal(t, "secret", password)
	})

	t.Run("kheops uses token as basic password", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{})
		ep, err := auth.resolve("https://demo.kheops.online/view/sharetoken")
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, ep.baseURL+"/studies", nil)
		require.NoError(t, err)
		require.NoError(t, auth.apply(ctx, req, ep))

		username, password, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "token", username)
		assert.Equal(t, "sharetoken", password)
	})

	t.Run("plain leaves request untouched", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{})
		ep, err := auth.resolve("https://dicom.example.org/rs")
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, ep.baseURL+"/studies", nil)
		require.NoError(t, err)
		require.NoError(t, auth.apply(ctx, req, ep))

		assert.Empty(t, req.Header.Get("Authorization"))
	})
}

func TestGoogleAccessTokenMintedAndCached(t *testing.T) {
	auth := newTestAuthenticator(t, &config.RemoteSettings{})

	calls := 0
	auth.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls++
		require.Equal(t, "gcloud", name)
		require.Equal(t, []string{"auth", "print-access-token"}, args)
		return []byte("ya29.token\n"), nil
	}

	ctx := context.Background()
	token, err := auth.googleAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token)

	token, err = auth.googleAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token)
	assert.Equal(t, 1, calls)
}

func TestGoogleAccessTokenErrors(t *testing.T) {
	t.Run("gcloud failure", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{})
		auth.runCommand = func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("gcloud not installed")
		}

		_, err := auth.googleAccessToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mint Google Cloud access token")
	})

	t.Run("empty token", func(t *testing.T) {
		auth := newTestAuthenticator(t, &config.RemoteSettings{})
		auth.runCommand = func(context.Context, string, ...string) ([]byte, error) {
			return []byte("\n"), nil
		}

		_, err := auth.googleAccessToken(context.Background())
		require.Error(t, err)
	})
}

func TestViewerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		url             string
		expectedToken   string
		expectedBaseURL string
	}{
		{
			name:            "viewer URL",
			url:             "https://demo.kheops.online/view/abc123",
			expectedToken:   "abc123",
			expectedBaseURL: "https://demo.kheops.online/api",
		},
		{
			name:            "trailing slash",
			url:             "https://demo.kheops.online/view/abc123/",
			expectedToken:   "abc123",
			expectedBaseURL: "https://demo.kheops.online/api",
		},
		{
			name:            "no viewer segment falls back to configured token",
			url:             "https://demo.kheops.online/api",
			expectedToken:   "configured",
			expectedBaseURL: "https://demo.kheops.online/api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuthenticator(t, &config.RemoteSettings{Token: "configured"})
			ep, err := auth.resolve(tt.url)
			require.NoError(t, err)

			assert.Equal(t, config.AuthProfileKheops, ep.profile)
			assert.Equal(t, tt.expectedToken, ep.token)
			assert.Equal(t, tt.expectedBaseURL, ep.baseURL)
		})
	}
}
