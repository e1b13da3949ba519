package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := request(t, http.MethodGet, testEnv.Noop.URL+"/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestHealthEndpointsNoAuth(t *testing.T) {
	// Probes work without credentials even when auth is enforced.
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp := request(t, http.MethodGet, testEnv.Production.URL+path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s without auth = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMetricsRecordAuthDecisions(t *testing.T) {
	resp := request(t, http.MethodGet, testEnv.Custom.URL+"/v1/me", "", nil)
	resp.Body.Close()

	resp = request(t, http.MethodGet, testEnv.Custom.URL+"/metrics", "", nil)
	body := readBody(t, resp)
	if !strings.Contains(body, "agentgate_auth_decisions_total") {
		t.Error("metrics missing agentgate_auth_decisions_total")
	}
}
