package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quangtn/github-session-gateway/gateway"
	"github.com/quangtn/github-session-gateway/github"
	"github.com/quangtn/github-session-gateway/internal/config"
	"github.com/quangtn/github-session-gateway/internal/metrics"
	"github.com/quangtn/github-session-gateway/server"
	"github.com/quangtn/github-session-gateway/sessions"
	"github.com/stretchr/testify/require"
)

const testToken = "ghp_" + "abcdefghijklmnopqrstuvwxyz0123456789"

type testEnv struct {
	api    *httptest.Server
	remote *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	remote := http.NewServeMux()
	remoteSrv := httptest.NewServer(remote)
	t.Cleanup(remoteSrv.Close)

	collector := metrics.NewCollector()
	client := github.NewClient(remoteSrv.URL,
		github.WithHTTPClient(remoteSrv.Client()),
		github.WithObserver(collector))

	gw, err := gateway.New(sessions.NewInMemoryStore(), client, github.NewCloneRunner(),
		gateway.WithRecorder(collector))
	require.NoError(t, err)

	srv, err := server.New(config.New(), gw, collector)
	require.NoError(t, err)

	api := httptest.NewServer(srv)
	t.Cleanup(api.Close)

	return &testEnv{api: api, remote: remote}
}

func (e *testEnv) stubRepo() {
	e.remote.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":             "hello-world",
			"full_name":        "octocat/hello-world",
			"description":      "My first repository",
			"stargazers_count": 80,
		})
	})
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"repository_url": "https://github.com/octocat/hello-world",
		"token":          testToken,
	})
	resp, err := http.Post(e.api.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestServer_Healthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.api.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CreateSession_ResponseOmitsToken(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()

	body, _ := json.Marshal(map[string]string{
		"repository_url": "https://github.com/octocat/hello-world",
		"token":          testToken,
	})
	resp, err := http.Post(env.api.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "session_id")
	require.NotContains(t, string(raw), testToken)
}

func TestServer_CreateSession_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		payload  map[string]string
		wantKind string
	}{
		{
			name:     "bad host",
			payload:  map[string]string{"repository_url": "https://gitlab.com/a/b", "token": testToken},
			wantKind: "invalid_locator",
		},
		{
			name:     "bad token",
			payload:  map[string]string{"repository_url": "https://github.com/octocat/hello-world", "token": "nope"},
			wantKind: "invalid_token_format",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			resp, err := http.Post(env.api.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var payload struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.Equal(t, tc.wantKind, payload.Error)
		})
	}
}

func TestServer_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions/no-such-id/repo")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "session_not_found", payload.Error)
}

func TestServer_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	id := env.createSession(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(raw), id)
	require.NotContains(t, string(raw), testToken)

	req, _ := http.NewRequest(http.MethodDelete, env.api.URL+"/v1/sessions/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Second delete reports not found.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_FileEndpointRequiresPath(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	id := env.createSession(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions/" + id + "/file")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_PullDiffIsPlainText(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	env.remote.HandleFunc("/repos/octocat/hello-world/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/vnd.github.v3.diff" {
			_, _ = w.Write([]byte("diff --git a/x b/x\n"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number": 3,
			"title":  "Fix x",
			"state":  "open",
			"user":   map[string]any{"login": "octocat"},
			"head":   map[string]any{"ref": "fix-x"},
			"base":   map[string]any{"ref": "main"},
		})
	})
	id := env.createSession(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions/" + id + "/pulls/3/diff")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Pull Request #3: Fix x")
	require.Contains(t, string(raw), "diff --git")
}

func TestServer_PullNumberMustBeNumeric(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	id := env.createSession(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions/" + id + "/pulls/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RemoteErrorsMapToGatewayStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	env.remote.HandleFunc("/repos/octocat/hello-world/branches", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})
	id := env.createSession(t)

	resp, err := http.Get(env.api.URL + "/v1/sessions/" + id + "/branches")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "remote_api_error", payload.Error)
}

func TestServer_SweepEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	env.createSession(t)

	resp, err := http.Post(env.api.URL+"/v1/sessions/sweep", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 0, payload.Removed)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.stubRepo()
	id := env.createSession(t)

	resp, err := http.Get(fmt.Sprintf("%s/v1/sessions/%s/repo", env.api.URL, id))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.api.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "gateway_operations_total")
	require.NotContains(t, string(raw), testToken)
}

func TestServer_CorsPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodOptions, env.api.URL+"/v1/sessions", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
