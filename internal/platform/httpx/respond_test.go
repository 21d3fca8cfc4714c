package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Acme","nmae":"typo"}`))
	var p payload
	err := DecodeJSON(r, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Acme"}`))
	require.NoError(t, DecodeJSON(r, &p))
	assert.Equal(t, "Acme", p.Name)
}

func TestProblemWritesRFC7807Body(t *testing.T) {
	w := httptest.NewRecorder()
	Problem(w, 422, "Validation Failed", "quantity must be positive")

	assert.Equal(t, 422, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Validation Failed","status":422,"detail":"quantity must be positive"}`, w.Body.String())
}
