//go:build e2e

package test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPJSONStep represents a single HTTP JSON request step in a test
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	Validator      func(*testing.T, map[string]any) // Optional response validator
}

// ExecuteHTTPJSONStep executes a single HTTP JSON step and handles all the common boilerplate
func ExecuteHTTPJSONStep(t *testing.T, step HTTPJSONStep, baseURL string) map[string]any {
	t.Helper()
	t.Logf("step: %s", step.Name)

	url := baseURL + step.URL
	resp, err := httpJSON(step.Method, url, step.Body, step.Headers)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, step.ExpectedStatus, resp.StatusCode)

	var respData map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&respData))

	if step.Validator != nil {
		step.Validator(t, respData)
	}

	return respData
}

// ExecuteHTTPJSONSteps executes a sequence of HTTP JSON steps
func ExecuteHTTPJSONSteps(t *testing.T, steps []HTTPJSONStep, baseURL string) []map[string]any {
	t.Helper()
	var results []map[string]any

	for _, step := range steps {
		result := ExecuteHTTPJSONStep(t, step, baseURL)
		results = append(results, result)
	}

	return results
}

// ErrorMessageValidator validates that an error response contains expected message content
func ErrorMessageValidator(expectedSubstring string) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		errorMsg, exists := respData["error"]
		require.True(t, exists, "Expected error field to exist in response")
		assert.Contains(t, errorMsg.(string), expectedSubstring,
			"Expected error message to contain '%s', but got: %s", expectedSubstring, errorMsg)
	}
}

// ItemFieldValidator validates nested item fields in a response
func ItemFieldValidator(check func(*testing.T, map[string]any)) func(*testing.T, map[string]any) {
	return func(t *testing.T, respData map[string]any) {
		t.Helper()
		item, ok := respData["item"].(map[string]any)
		require.True(t, ok, "Expected item object in response")
		check(t, item)
	}
}

// GetItemID extracts the item id from an item response
func GetItemID(t *testing.T, respData map[string]any) string {
	t.Helper()
	item, ok := respData["item"].(map[string]any)
	require.True(t, ok, "Expected item object in response")
	id, ok := item["id"].(string)
	require.True(t, ok, "Expected item id to be a string")
	require.NotEmpty(t, id)
	return id
}

// GetGroupID extracts the group id from a group response
func GetGroupID(t *testing.T, respData map[string]any) string {
	t.Helper()
	group, ok := respData["group"].(map[string]any)
	require.True(t, ok, "Expected group object in response")
	id, ok := group["id"].(string)
	require.True(t, ok, "Expected group id to be a string")
	require.NotEmpty(t, id)
	return id
}
