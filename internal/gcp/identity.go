package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2/google"
)

// CallerIdentity holds the identity resolved from Application Default Credentials.
type CallerIdentity struct {
	// Email is the service account address or user email, when known.
	Email string
	// ProjectID is the project the credentials bill Earth Engine and Storage calls to.
	ProjectID string
	// CredentialType is the "type" field of the ADC file
	// (service_account, authorized_user, external_account, ...).
	CredentialType string
}

const userinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// adcFile is the subset of an ADC credentials file used here.
type adcFile struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
}

// GetCallerIdentity refreshes Application Default Credentials and reports who
// Earth Engine and Storage requests will run as.
func GetCallerIdentity(ctx context.Context, project string) (*CallerIdentity, error) {
	creds, err := google.FindDefaultCredentials(ctx, scopeCloudPlatform, scopeEarthEngine)
	if err != nil {
		return nil, fmt.Errorf("no application default credentials found (run 'gcloud auth application-default login'): %w", err)
	}

	token, err := creds.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh GCP credentials (run 'gcloud auth application-default login'): %w", err)
	}

	identity := &CallerIdentity{ProjectID: project}
	if identity.ProjectID == "" {
		identity.ProjectID = creds.ProjectID
	}

	if data, err := os.ReadFile(adcPath()); err == nil {
		var f adcFile
		if json.Unmarshal(data, &f) == nil {
			identity.CredentialType = f.Type
			identity.Email = f.ClientEmail
		}
	}

	if identity.Email == "" {
		if email, err := lookupEmail(ctx, token.AccessToken); err == nil {
			identity.Email = email
		}
	}

	return identity, nil
}

// adcPath returns the path of the active ADC file, honoring
// GOOGLE_APPLICATION_CREDENTIALS.
func adcPath() string {
	if env := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gcloud", "application_default_credentials.json")
}

// lookupEmail asks the userinfo endpoint for the account behind an access token.
func lookupEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo: %s", resp.Status)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}
