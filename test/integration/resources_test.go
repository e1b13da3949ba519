package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/rhuss/agentgate/pkg/api"
)

func createResource(t *testing.T, baseURL, token string, kind api.Kind, md map[string]any) api.Resource {
	t.Helper()
	resp := request(t, http.MethodPost, baseURL+"/v1/"+string(kind), token,
		api.CreateResourceRequest{Metadata: md})
	expectStatus(t, resp, http.StatusCreated)

	var res api.Resource
	decodeJSON(t, resp, &res)
	return res
}

func search(t *testing.T, baseURL, token string, kind api.Kind, req api.SearchRequest) api.ResourceList {
	t.Helper()
	resp := request(t, http.MethodPost, baseURL+"/v1/"+string(kind)+"/search", token, req)
	expectStatus(t, resp, http.StatusOK)

	var list api.ResourceList
	decodeJSON(t, resp, &list)
	return list
}

func TestResourceLifecycle(t *testing.T) {
	base := testEnv.Custom.URL
	tok := userToken(t, "lifecycle-user")

	res := createResource(t, base, tok, api.KindThread, map[string]any{"topic": "billing"})
	if res.Metadata["owner"] != "lifecycle-user" {
		t.Errorf("owner metadata = %v, want lifecycle-user", res.Metadata["owner"])
	}
	url := fmt.Sprintf("%s/v1/threads/%s", base, res.ID)

	resp := request(t, http.MethodGet, url, tok, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = request(t, http.MethodPatch, url, tok, api.UpdateResourceRequest{
		Metadata: map[string]any{"status": "open"},
		Values:   map[string]any{"messages": 3},
	})
	expectStatus(t, resp, http.StatusOK)
	var updated api.Resource
	decodeJSON(t, resp, &updated)
	if updated.Metadata["topic"] != "billing" || updated.Metadata["status"] != "open" {
		t.Errorf("metadata after update = %v", updated.Metadata)
	}
	if updated.Values["messages"] != float64(3) {
		t.Errorf("values after update = %v", updated.Values)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("updated_at before created_at")
	}

	resp = request(t, http.MethodDelete, url, tok, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = request(t, http.MethodGet, url, tok, nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestOwnerScoping(t *testing.T) {
	base := testEnv.Custom.URL
	alice, bob := userToken(t, "scope-alice"), userToken(t, "scope-bob")

	// Forged owner metadata is overwritten with the caller.
	res := createResource(t, base, alice, api.KindAssistant, map[string]any{"owner": "scope-bob", "name": "a"})
	if res.Metadata["owner"] != "scope-alice" {
		t.Fatalf("owner = %v, want scope-alice", res.Metadata["owner"])
	}
	createResource(t, base, bob, api.KindAssistant, map[string]any{"name": "b"})

	url := fmt.Sprintf("%s/v1/assistants/%s", base, res.ID)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp := request(t, method, url, bob, nil)
		expectStatus(t, resp, http.StatusNotFound)
		resp.Body.Close()
	}
	resp := request(t, http.MethodPatch, url, bob, api.UpdateResourceRequest{Metadata: map[string]any{"name": "stolen"}})
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	aliceList := search(t, base, alice, api.KindAssistant, api.SearchRequest{})
	if len(aliceList.Data) != 1 || aliceList.Data[0].ID != res.ID {
		t.Errorf("alice sees %d assistants, want only her own", len(aliceList.Data))
	}

	// A forged owner filter is rewritten to the caller.
	forged := search(t, base, alice, api.KindAssistant, api.SearchRequest{
		Metadata: map[string]any{"owner": "scope-bob"},
	})
	for _, r := range forged.Data {
		if r.Metadata["owner"] != "scope-alice" {
			t.Errorf("forged owner search returned resource owned by %v", r.Metadata["owner"])
		}
	}
}

func TestNoopModeSharesResources(t *testing.T) {
	base := testEnv.Noop.URL
	res := createResource(t, base, "", api.KindCron, map[string]any{"schedule": "@daily"})

	resp := request(t, http.MethodGet, fmt.Sprintf("%s/v1/crons/%s", base, res.ID), "someone-else", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSearchPagination(t *testing.T) {
	base := testEnv.Custom.URL
	tok := userToken(t, "paging-user")

	for i := range 5 {
		createResource(t, base, tok, api.KindRun, map[string]any{"batch": "p", "n": i})
	}

	first := search(t, base, tok, api.KindRun, api.SearchRequest{
		Metadata: map[string]any{"batch": "p"},
		Limit:    2,
	})
	if len(first.Data) != 2 || !first.HasMore {
		t.Fatalf("first page = %d items, has_more=%v; want 2, true", len(first.Data), first.HasMore)
	}

	last := search(t, base, tok, api.KindRun, api.SearchRequest{
		Metadata: map[string]any{"batch": "p"},
		Limit:    2,
		Offset:   4,
	})
	if len(last.Data) != 1 || last.HasMore {
		t.Errorf("last page = %d items, has_more=%v; want 1, false", len(last.Data), last.HasMore)
	}

	// Newest first.
	if first.Data[0].Metadata["n"] != float64(4) {
		t.Errorf("first result n = %v, want 4", first.Data[0].Metadata["n"])
	}
}

func TestCreateWithClientID(t *testing.T) {
	base := testEnv.Custom.URL
	tok := userToken(t, "id-user")
	id := "5f0c6a4e-8b1d-4f53-9a63-2c1e7d9b0a11"

	resp := request(t, http.MethodPost, base+"/v1/threads", tok, api.CreateResourceRequest{ID: id})
	expectStatus(t, resp, http.StatusCreated)
	var res api.Resource
	decodeJSON(t, resp, &res)
	if res.ID != id {
		t.Errorf("id = %q, want %q", res.ID, id)
	}

	resp = request(t, http.MethodPost, base+"/v1/threads", tok, api.CreateResourceRequest{ID: id})
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	// Another user may hold the same id; the first owner's copy is untouched.
	resp = request(t, http.MethodPost, base+"/v1/threads", userToken(t, "id-user-2"), api.CreateResourceRequest{ID: id})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = request(t, http.MethodGet, base+"/v1/threads/"+id, tok, nil)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &res)
	if res.Owner != "id-user" {
		t.Errorf("owner = %q, want id-user", res.Owner)
	}
}
