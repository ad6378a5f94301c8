package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// googleTokenTTL bounds how long a minted gcloud access token is reused.
// Google access tokens live for an hour; half of that keeps a margin.
const googleTokenTTL = 30 * time.Minute

const kheopsViewerSegment = "/view/"

// endpoint is a resolved DICOMweb endpoint: the request base URL plus the
// credentials derived from the configured or detected auth profile.
type endpoint struct {
	baseURL  string
	profile  string
	token    string
	username string
	password string
}

// authenticator resolves server URLs into endpoints and decorates outbound
// requests with the matching Authorization header.
type authenticator struct {
	settings   *config.RemoteSettings
	logger     logger.Logger
	runCommand commandRunner

	mu       sync.Mutex
	token    string
	mintedAt time.Time
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- command names and arguments are fixed by the callers, not user input
	return exec.CommandContext(ctx, name, args...).Output()
}

func newAuthenticator(settings *config.RemoteSettings, logger logger.Logger) *authenticator {
	return &authenticator{
		settings:   settings,
		logger:     logger,
		runCommand: runCommand,
	}
}

// resolve determines the auth profile and request base URL for serverURL.
// An explicitly configured profile wins over URL detection. Kheops viewer
// URLs of the form https://host/view/<token> are rewritten to the API base
// https://host/api with the token taken from the path.
func (a *authenticator) resolve(serverURL string) (*endpoint, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL %s: %w", serverURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("server URL %s is missing a scheme or host", serverURL)
	}

	profile := a.settings.AuthProfile
	if profile == "" {
		profile = detectProfile(parsed)
	}

	ep := &endpoint{
		baseURL: strings.TrimRight(serverURL, "/"),
		profile: profile,
	}

	switch profile {
	case config.AuthProfilePlain, config.AuthProfileGoogle:
	case config.AuthProfileBearer:
		if a.settings.Token == "" {
			return nil, errors.New("bearer auth requires a configured token")
		}
		ep.token = a.settings.Token
	case config.AuthProfileBasic:
		if a.settings.Username == "" {
			return nil, errors.New("basic auth requires a configured username")
		}
		ep.username = a.settings.Username
		ep.password = a.settings.Password
	case config.AuthProfileKheops:
		token := viewerToken(parsed)
		if token != "" {
			ep.baseURL = fmt.Sprintf("%s://%s/api", parsed.Scheme, parsed.Host)
		} else {
			token = a.settings.Token
		}
		if token == "" {
			return nil, errors.New("kheops auth requires a viewer URL or a configured token")
		}
		ep.token = token
	default:
		return nil, fmt.Errorf("unsupported auth profile %s", profile)
	}

	return ep, nil
}

// apply sets the Authorization header required by the endpoint's profile.
func (a *authenticator) apply(ctx context.Context, req *http.Request, ep *endpoint) error {
	switch ep.profile {
	case config.AuthProfilePlain:
	case config.AuthProfileBearer:
		req.Header.Set("Authorization", "Bearer "+ep.token)
	case config.AuthProfileBasic:
		req.SetBasicAuth(ep.username, ep.password)
	case config.AuthProfileGoogle:
		token, err := a.googleAccessToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case config.AuthProfileKheops:
		req.SetBasicAuth("token", ep.token)
	}
	return nil
}

// googleAccessToken mints an access token through the gcloud CLI and caches
// it for googleTokenTTL.
func (a *authenticator) googleAccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Since(a.mintedAt) < googleTokenTTL {
		return a.token, nil
	}

	out, err := a.runCommand(ctx, "gcloud", "auth", "print-access-token")
	if err != nil {
		return "", fmt.Errorf("failed to mint Google Cloud access token with gcloud: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", errors.New("gcloud returned an empty access token")
	}

	a.token = token
	a.mintedAt = time.Now()
	a.logger.Info("Minted Google Cloud access token through gcloud")
	return token, nil
}

func detectProfile(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.Contains(host, "googleapis.com"):
		return config.AuthProfileGoogle
	case strings.Contains(host, "kheops"):
		return config.AuthProfileKheops
	default:
		return config.AuthProfilePlain
	}
}

// viewerToken extracts the share token from a Kheops viewer URL path,
// or returns "" when the path has no /view/ segment.
func viewerToken(parsed *url.URL) string {
	path := parsed.Path
	idx := strings.Index(path, kheopsViewerSegment)
	if idx < 0 {
		return ""
	}
	token := path[idx+len(kheopsViewerSegment):]
	return strings.Trim(token, "/")
}
