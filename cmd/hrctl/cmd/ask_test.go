package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryResultDecodesProxyPayload(t *testing.T) {
	payload := `{
		"request_id": "r-1",
		"route": "document",
		"decision": "Allowed",
		"intent": "self",
		"answer": "1 record found",
		"masked_results": [{"first name": "<FIRST_NAME_0>", "department": "Engineering"}]
	}`

	var result queryResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))

	assert.Equal(t, "Allowed", result.Decision)
	require.Len(t, result.MaskedRows, 1)
	assert.Equal(t, "<FIRST_NAME_0>", result.MaskedRows[0]["first name"])
	assert.Equal(t, "Engineering", result.MaskedRows[0]["department"])
}
