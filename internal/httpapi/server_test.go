// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/harmony/internal/auth"
	"github.com/bandmate/harmony/internal/events"
	"github.com/bandmate/harmony/internal/profile"
)

// memAccounts backs both the account repository and the profile
// repository, mirroring the shared accounts table in production.
type memAccounts struct {
	accounts map[ulid.ULID]*auth.Account
	profiles map[ulid.ULID]*profile.Profile
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		accounts: make(map[ulid.ULID]*auth.Account),
		profiles: make(map[ulid.ULID]*profile.Profile),
	}
}

func (m *memAccounts) Insert(_ context.Context, account *auth.Account) error {
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return auth.ErrEmailTaken
		}
		if existing.Handle == account.Handle {
			return auth.ErrHandleTaken
		}
	}
	clone := *account
	m.accounts[account.ID] = &clone
	m.profiles[account.ID] = &profile.Profile{
		ID:        account.ID,
		Handle:    account.Handle,
		UpdatedAt: account.UpdatedAt,
	}
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	for _, account := range m.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memAccounts) FindByHandle(_ context.Context, handle string) (*auth.Account, error) {
	for _, account := range m.accounts {
		if account.Handle == handle {
			clone := *account
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memAccounts) Update(_ context.Context, id ulid.ULID, update auth.AccountUpdate) (*auth.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if update.Handle != nil {
		account.Handle = *update.Handle
		m.profiles[id].Handle = *update.Handle
	}
	if update.PasswordHash != nil {
		account.PasswordHash = *update.PasswordHash
	}
	account.UpdatedAt = time.Now()
	clone := *account
	return &clone, nil
}

func (m *memAccounts) Get(_ context.Context, id ulid.ULID) (*profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memAccounts) Apply(_ context.Context, id ulid.ULID, update profile.Update) (*profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	if update.City != nil {
		p.City = update.City
	}
	if update.Bio != nil {
		p.Bio = update.Bio
	}
	if update.Instruments != nil {
		p.Instruments = update.Instruments
	}
	if update.Genres != nil {
		p.Genres = update.Genres
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

type memEvents struct {
	events map[ulid.ULID]*events.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[ulid.ULID]*events.Event)}
}

func (m *memEvents) Insert(_ context.Context, event *events.Event) error {
	clone := *event
	m.events[event.ID] = &clone
	return nil
}

func (m *memEvents) Get(_ context.Context, id ulid.ULID) (*events.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	clone := *event
	return &clone, nil
}

func (m *memEvents) List(_ context.Context, limit int) ([]*events.Event, error) {
	return m.filter(func(*events.Event) bool { return true }, limit), nil
}

func (m *memEvents) Search(_ context.Context, filter events.SearchFilter) ([]*events.Event, error) {
	return m.filter(func(e *events.Event) bool {
		if filter.Query != "" &&
			!strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Query)) {
			return false
		}
		if filter.Genre != "" && (e.Genre == nil || *e.Genre != filter.Genre) {
			return false
		}
		return true
	}, filter.Limit), nil
}

func (m *memEvents) filter(match func(*events.Event) bool, limit int) []*events.Event {
	var out []*events.Event
	for _, event := range m.events {
		if match(event) {
			clone := *event
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := newMemAccounts()
	tokens, err := auth.NewTokenIssuer([]byte("httpapi-test-secret"), time.Hour)
	require.NoError(t, err)

	authSvc, err := auth.NewService(store, auth.NewArgon2idHasher(), tokens)
	require.NoError(t, err)
	profileSvc, err := profile.NewService(store, nil)
	require.NoError(t, err)
	eventSvc, err := events.NewService(newMemEvents(), nil)
	require.NoError(t, err)

	server, err := NewServer(":0", Deps{
		Auth:     authSvc,
		Tokens:   tokens,
		Profiles: profileSvc,
		Events:   eventSvc,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.ContentLength != 0 {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error payload, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
		"email":    "alice.smith@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alicesmith", user["handle"])
	assert.Equal(t, "alice.smith@example.com", user["email"])
	assert.NotContains(t, user, "password_hash", "credentials must never leave the server")

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
			"email":    "alice.smith@example.com",
			"password": "other",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", errorCode(t, body))
	})

	t.Run("login returns a fresh token", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]any{
			"email":    "alice.smith@example.com",
			"password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		loginToken, _ := body["token"].(string)
		assert.NotEmpty(t, loginToken)
	})

	t.Run("wrong password and unknown email are identical", func(t *testing.T) {
		respWrong, bodyWrong := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]any{
			"email":    "alice.smith@example.com",
			"password": "wrong",
		})
		respUnknown, bodyUnknown := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]any{
			"email":    "nobody@example.com",
			"password": "hunter2hunter2",
		})
		assert.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
		assert.Equal(t, bodyWrong["error"], bodyUnknown["error"])
	})

	t.Run("me returns the caller's account in a user envelope", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/auth/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, ok := body["user"].(map[string]any)
		require.True(t, ok, "response must nest the account under user")
		assert.Equal(t, "alicesmith", user["handle"])
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("me without token is unauthorized", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", errorCode(t, body))
	})

	t.Run("me with garbage token is unauthorized", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/auth/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout succeeds and token stays valid", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, ts.URL+"/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "tokens are stateless")
	})
}

func TestProfileRoutes(t *testing.T) {
	ts := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	token, _ := body["token"].(string)
	user := body["user"].(map[string]any)
	aliceID := user["id"].(string)

	t.Run("get profile is public", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/profiles/"+aliceID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "alice", body["handle"])
	})

	t.Run("unknown profile is 404", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/profiles/"+ulid.Make().String(), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, body))
	})

	t.Run("owner can update own profile", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, ts.URL+"/profiles/"+aliceID, token, map[string]any{
			"city":        "Berlin",
			"instruments": []string{"guitar"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Berlin", body["city"])
	})

	t.Run("update requires auth", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, ts.URL+"/profiles/"+aliceID, "", map[string]any{"city": "Oslo"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("cannot update another account's profile", func(t *testing.T) {
		_, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
			"email":    "bob@example.com",
			"password": "hunter2hunter2",
		})
		bobToken, _ := body["token"].(string)

		resp, body := doJSON(t, http.MethodPut, ts.URL+"/profiles/"+aliceID, bobToken, map[string]any{"city": "Oslo"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", errorCode(t, body))
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, ts.URL+"/profiles/"+aliceID, token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
	})
}

func TestEventRoutes(t *testing.T) {
	ts := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
		"email":    "organizer@example.com",
		"password": "hunter2hunter2",
	})
	token, _ := body["token"].(string)
	user := body["user"].(map[string]any)
	organizerID := user["id"].(string)

	t.Run("create requires auth", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/events/", "", map[string]any{
			"title":     "Jam night",
			"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	var eventID string
	t.Run("create sets the caller as owner", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/events/", token, map[string]any{
			"title":     "Jam night",
			"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
			"genre":     "jazz",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Jam night", body["title"])
		assert.Equal(t, organizerID, body["created_by"])
		eventID, _ = body["id"].(string)
		require.NotEmpty(t, eventID)
	})

	t.Run("get and list are public", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/events/"+eventID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Jam night", body["title"])

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/events/", nil)
		require.NoError(t, err)
		listResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = listResp.Body.Close() }()

		var list []map[string]any
		require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
		assert.Len(t, list, 1)
	})

	t.Run("search filters by query", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/events/search?q=jam", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Len(t, list, 1)
	})

	t.Run("missing title is rejected", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/events/", token, map[string]any{
			"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
	})

	t.Run("unknown event is 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/events/"+ulid.Make().String(), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
