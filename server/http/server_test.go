package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshkesharwani789/talk-space/auth"
	httpServer "github.com/Harshkesharwani789/talk-space/server/http"
	"github.com/Harshkesharwani789/talk-space/service"
	"github.com/Harshkesharwani789/talk-space/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	store := memory.NewMemStore()
	authSvc := service.NewAuth(service.AuthConfig{
		Store:  store,
		Tokens: auth.NewManager("test-secret", time.Hour),
		Logger: &logger,
	})
	srv := httpServer.NewServer(httpServer.Config{
		Logger: &logger,
		Store:  store,
		Auth:   authSvc,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &fields))
	}
	return resp.StatusCode, fields
}

func register(t *testing.T, ts *httptest.Server, name, email string) (userID, token string) {
	t.Helper()

	code, fields := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, code)

	var user struct {
		ID string `json:"_id"`
	}
	require.NoError(t, json.Unmarshal(fields["user"], &user))
	require.NoError(t, json.Unmarshal(fields["token"], &token))
	return user.ID, token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "running")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	userID, token := register(t, ts, "Alice", "alice@example.com")
	assert.NotEmpty(t, userID)
	assert.NotEmpty(t, token)

	code, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"name": "Eve", "email": "alice@example.com", "password": "s3cret",
	})
	assert.Equal(t, http.StatusConflict, code, "duplicate email is rejected")

	code, fields := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, fields["token"])

	code, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	code, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChatAndMessageFlow(t *testing.T) {
	ts := newTestServer(t)

	aliceID, aliceToken := register(t, ts, "Alice", "alice@example.com")
	bobID, bobToken := register(t, ts, "Bob", "bob@example.com")

	code, fields := doJSON(t, http.MethodPost, ts.URL+"/chat", aliceToken, map[string]any{
		"users": []string{bobID},
	})
	require.Equal(t, http.StatusCreated, code)

	var chat struct {
		ID      string   `json:"_id"`
		UserIDs []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(fields["data"], &chat))
	assert.ElementsMatch(t, []string{aliceID, bobID}, chat.UserIDs, "creator is always a participant")

	code, fields = doJSON(t, http.MethodGet, ts.URL+"/chat", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	var chats []struct {
		ID string `json:"_id"`
	}
	require.NoError(t, json.Unmarshal(fields["data"], &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, chat.ID, chats[0].ID)

	code, _ = doJSON(t, http.MethodPost, ts.URL+"/message", aliceToken, map[string]string{
		"chat": chat.ID, "content": "hello bob",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, http.MethodPost, ts.URL+"/message", aliceToken, map[string]string{
		"chat": "no-such-chat", "content": "hello void",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, fields = doJSON(t, http.MethodGet, ts.URL+"/message/"+chat.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	var msgs []struct {
		SenderID string `json:"sender"`
		Content  string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(fields["data"], &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, aliceID, msgs[0].SenderID)
	assert.Equal(t, "hello bob", msgs[0].Content)
}

func TestAuthenticationRequired(t *testing.T) {
	ts := newTestServer(t)

	for _, tt := range []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"bogus token", "bogus"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := doJSON(t, http.MethodGet, ts.URL+"/chat", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}
