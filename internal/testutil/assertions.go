package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the error envelope carries the expected status
// and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body ErrorResponse
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedStatus, body.Error.Status, "status in body")
	assert.Equal(t, expectedMessage, body.Error.Message, "error message mismatch")
}

// AssertNoPrivateFields fails if a raw JSON user object exposes the password
// hash or reset credential
func AssertNoPrivateFields(t *testing.T, raw map[string]interface{}) {
	t.Helper()

	for _, key := range []string{"password", "passwordHash", "passwordResetToken", "passwordResetTokenExpiry"} {
		assert.NotContains(t, raw, key, "private field %q exposed", key)
	}
}
