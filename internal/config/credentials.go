package config

import (
	"os"

	"github.com/moolen/sentinel/internal/logging"
)

// Environment variable names read for credentials.
const (
	EnvOAuthToken         = "CLAUDE_CODE_OAUTH_TOKEN"
	EnvAPIKey             = "ANTHROPIC_API_KEY"
	EnvBlueskyHandle      = "BLUESKY_HANDLE"
	EnvBlueskyAppPassword = "BLUESKY_APP_PASSWORD"
	EnvBlueskyPDSURL      = "BLUESKY_PDS_URL"
)

// Source looks up configuration values by name. It keeps credential loading
// independent of the process environment in tests.
type Source interface {
	Lookup(key string) (string, bool)
}

// EnvSource reads the process environment.
type EnvSource struct{}

// Lookup implements Source.
func (EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource is a fixed set of values.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func get(src Source, key string) string {
	v, _ := src.Lookup(key)
	return v
}

// AuthMethod names how the agent authenticates.
type AuthMethod string

const (
	AuthOAuth  AuthMethod = "OAuth"
	AuthAPIKey AuthMethod = "API Key"
)

// AgentCredentials authenticate against the hosted agent.
type AgentCredentials struct {
	Method AuthMethod
	Token  string
}

// APIKey returns the token when the method is an API key.
func (c AgentCredentials) APIKey() string {
	if c.Method == AuthAPIKey {
		return c.Token
	}
	return ""
}

// OAuthToken returns the token when the method is OAuth.
func (c AgentCredentials) OAuthToken() string {
	if c.Method == AuthOAuth {
		return c.Token
	}
	return ""
}

// LoadAgentCredentials picks the OAuth token when set, else the API key.
func LoadAgentCredentials(src Source) (AgentCredentials, error) {
	oauth := get(src, EnvOAuthToken)
	apiKey := get(src, EnvAPIKey)

	switch {
	case oauth != "":
		if apiKey != "" {
			logging.GetLogger("config").Warn("Both %s and %s are set; using OAuth and ignoring the API key", EnvOAuthToken, EnvAPIKey)
		}
		return AgentCredentials{Method: AuthOAuth, Token: oauth}, nil
	case apiKey != "":
		return AgentCredentials{Method: AuthAPIKey, Token: apiKey}, nil
	default:
		return AgentCredentials{}, NewConfigError("No Claude authentication configured").
			WithHint("Set either " + EnvOAuthToken + " or " + EnvAPIKey)
	}
}

// BlueskyCredentials log in to a PDS.
type BlueskyCredentials struct {
	Handle      string
	AppPassword string
	// PDSURL is empty unless overridden in the environment.
	PDSURL string
}

// LoadBlueskyCredentials reads the account handle and app password.
func LoadBlueskyCredentials(src Source) (BlueskyCredentials, error) {
	creds := BlueskyCredentials{
		Handle:      get(src, EnvBlueskyHandle),
		AppPassword: get(src, EnvBlueskyAppPassword),
		PDSURL:      get(src, EnvBlueskyPDSURL),
	}
	if creds.Handle == "" || creds.AppPassword == "" {
		return BlueskyCredentials{}, NewConfigError("Bluesky credentials not configured").
			WithHint("Set " + EnvBlueskyHandle + " and " + EnvBlueskyAppPassword + " environment variables")
	}
	return creds, nil
}
