package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusCreated, Envelope{"roomId": "r1"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"roomId":"r1"}`, rec.Body.String())
}

func TestWriteJSONUnsupported(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Error(t, WriteJSON(rec, http.StatusOK, make(chan int)))
}
