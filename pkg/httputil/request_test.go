package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelBody struct {
	Name       string `json:"name"`
	MaxMembers int    `json:"max_members"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name": "general", "max_members": 5}`},
		{name: "empty body", body: ``, wantErr: "request body is required"},
		{name: "syntax", body: `{"name": }`, wantErr: "malformed JSON at offset"},
		{name: "truncated", body: `{"name": "general"`, wantErr: "malformed JSON"},
		{name: "wrong type", body: `{"max_members": "five"}`, wantErr: `field "max_members" must be a int`},
		{name: "unknown field", body: `{"name": "general", "owner": "x"}`, wantErr: `unknown field "owner"`},
		{name: "trailing document", body: `{"name": "a"} {"name": "b"}`, wantErr: "single JSON document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/groups/g1/channels", strings.NewReader(tt.body))
			var dest channelBody

			err := Decode(req, &dest)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, channelBody{Name: "general", MaxMembers: 5}, dest)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var rerr *RequestError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, http.StatusBadRequest, rerr.Status)
		})
	}
}

func TestDecodeBody(t *testing.T) {
	t.Run("writes kinded 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/groups", strings.NewReader(`{`))
		var dest channelBody

		assert.False(t, DecodeBody(w, req, &dest))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, KindInvalidInput, resp.Kind)
		assert.Contains(t, resp.Error, "malformed JSON")
	})

	t.Run("oversized body", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"name": "` + strings.Repeat("x", int(MaxBodyBytes)) + `"}`
		req := httptest.NewRequest("POST", "/groups", strings.NewReader(body))
		var dest channelBody

		assert.False(t, DecodeBody(w, req, &dest))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, KindInvalidInput, decodeError(t, w).Kind)
	})

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/groups", strings.NewReader(`{"name": "general"}`))
		var dest channelBody

		assert.True(t, DecodeBody(w, req, &dest))
		assert.Equal(t, "general", dest.Name)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteRequestError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRequestError(w, assert.AnError)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, KindInvalidInput, resp.Kind)
	assert.Equal(t, assert.AnError.Error(), resp.Error)
}

func TestPathVar(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/groups/g1/members/u1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "g1", "user_id": "  "})

	w := httptest.NewRecorder()
	val, ok := PathVar(w, req, "id")
	assert.True(t, ok)
	assert.Equal(t, "g1", val)

	w = httptest.NewRecorder()
	_, ok = PathVar(w, req, "user_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, KindInvalidInput, resp.Kind)
	assert.Equal(t, "missing path parameter user_id", resp.Error)
}

func TestRequired(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, Required(w, "user_id", "u1"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	assert.False(t, Required(w, "user_id", " "))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id is required", decodeError(t, w).Error)
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 100},
		{"limit=25", 25},
		{"limit=abc", 100},
		{"limit=0", 100},
		{"limit=-3", 100},
		{"limit=5000", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/audit/events?"+tt.query, nil)
			assert.Equal(t, tt.want, QueryInt(req, "limit", 100, 1, 1000))
		})
	}
}

func TestQueryTime(t *testing.T) {
	req := httptest.NewRequest("GET", "/audit/stats?start_time=2025-03-01T12:00:00Z&end_time=yesterday", nil)

	start := QueryTime(req, "start_time")
	require.NotNil(t, start)
	assert.True(t, start.Equal(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)))
	assert.Nil(t, QueryTime(req, "end_time"))
	assert.Nil(t, QueryTime(req, "since"))
}
