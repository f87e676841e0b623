// Package e2e drives a running qr-gateway instance over its public HTTP API.
// The target is selected with E2E_BASE_URL; scenarios are skipped when it is
// unset so the suite stays out of the regular unit test run.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	Client  *http.Client

	LastStatus int
	LastBody   map[string]any

	LoginID    string
	WatchToken string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastStatus = 0
	tc.LastBody = nil
	tc.LoginID = ""
	tc.WatchToken = ""
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := tc.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	tc.LastStatus = res.StatusCode
	tc.LastBody = nil
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.LastBody); err != nil {
			return fmt.Errorf("response is not JSON: %w", err)
		}
	}
	return nil
}

func (tc *TestContext) bodyString(key string) (string, error) {
	v, ok := tc.LastBody[key]
	if !ok {
		return "", fmt.Errorf("response has no field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("response field %q is not a string", key)
	}
	return s, nil
}
