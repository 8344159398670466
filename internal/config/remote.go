package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"golang.org/x/crypto/pbkdf2"
)

const (
	remoteFetchTimeout   = 15 * time.Second
	remoteKeyIterations  = 100_000
	remoteKeyLength      = 32
)

// httpClient is overridden by tests to avoid real network access.
var httpClient = &http.Client{Timeout: remoteFetchTimeout}

// DeriveRemoteKey turns metadata.remote_password into a fixed-length key via
// PBKDF2-HMAC-SHA256. remote_url itself is used as the salt: it is already
// attacker-visible in the document and ties the derived key to the specific
// endpoint it authenticates against.
func DeriveRemoteKey(m Metadata) []byte {
	salt := []byte(m.RemoteURL)
	return pbkdf2.Key([]byte(m.RemotePassword), salt, remoteKeyIterations, remoteKeyLength, sha256.New)
}

// FetchRemote retrieves a configuration document from metadata.remote_url.
// LoadRemoteOrLocal only calls this when the document itself sets is_local: false; a
// purely local document never touches the network. The derived PBKDF2 key
// is sent as a bearer token rather than over the wire in cleartext, so a
// passive observer of the request can't recover remote_password.
func FetchRemote(m Metadata) ([]byte, error) {
	if m.RemoteURL == "" {
		return nil, fmt.Errorf("config: is_local is false but metadata.remote_url is empty")
	}

	req, err := http.NewRequest(http.MethodGet, m.RemoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("config: building remote request: %w", err)
	}
	if m.RemotePassword != "" {
		key := DeriveRemoteKey(m)
		req.Header.Set("Authorization", "Bearer "+fmt.Sprintf("%x", key))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config: fetching %s: %w", m.RemoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config: remote fetch of %s returned %s", m.RemoteURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("config: reading remote body: %w", err)
	}
	return body, nil
}

// LoadRemoteOrLocal is the entry point the compiler uses: it loads the
// document at path, and if its metadata declares is_local: false, re-fetches
// the authoritative copy from remote_url and re-parses that instead,
// discarding the local copy's rules (is_local selects
// between two full document sources, not merging them).
func LoadRemoteOrLocal(path string) (*Document, *diag.Bag, error) {
	doc, bag, err := Load(path)
	if err != nil || bag.HasErrors() || doc.Metadata.IsLocal {
		return doc, bag, err
	}

	body, err := FetchRemote(doc.Metadata)
	if err != nil {
		return nil, nil, err
	}
	return Parse(body)
}
