package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deojon/studio/internal/handlers"
	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/internal/workspace"
	"github.com/deojon/studio/types"
)

const testSecret = "test-secret"

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	ws := workspace.New(context.Background(), workspace.Options{Interval: time.Hour})
	srv := httptest.NewServer(NewRouter(ws, testSecret))
	t.Cleanup(func() {
		srv.Close()
		ws.Close()
	})
	return &apiClient{t: t, server: srv}
}

func (c *apiClient) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *apiClient) login(id string) string {
	c.t.Helper()
	var resp handlers.AuthResponse
	status := c.do(http.MethodPost, "/auth/login", "", map[string]string{"id": id}, &resp)
	if status != http.StatusOK || resp.Token == "" {
		c.t.Fatalf("login %s: status %d", id, status)
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	api := newAPI(t)
	if status := api.do(http.MethodGet, "/healthz", "", nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestLoginRejectsEmptyID(t *testing.T) {
	api := newAPI(t)
	if status := api.do(http.MethodPost, "/auth/login", "", map[string]string{"id": ""}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	api := newAPI(t)
	if status := api.do(http.MethodGet, "/tasks", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if status := api.do(http.MethodGet, "/tasks", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", status)
	}
}

func TestTaskVisibilityOverHTTP(t *testing.T) {
	api := newAPI(t)
	u1 := api.login("user1")
	u2 := api.login("user2")

	var task types.Task
	status := api.do(http.MethodPost, "/tasks", u1, map[string]any{
		"text":       "private plan",
		"targetDate": "2024-07-01",
		"isPublic":   false,
	}, &task)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	var page store.Page[types.Task]
	api.do(http.MethodGet, "/tasks", u2, nil, &page)
	if page.Total != 0 {
		t.Fatalf("expected user2 to see no tasks, got %d", page.Total)
	}
	api.do(http.MethodGet, "/tasks", u1, nil, &page)
	if page.Total != 1 || page.Items[0].ID != task.ID {
		t.Fatalf("expected user1 to see their task, got %+v", page.Items)
	}

	if status := api.do(http.MethodGet, "/tasks/"+task.ID, u2, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for a hidden task, got %d", status)
	}
	if status := api.do(http.MethodDelete, "/tasks/"+task.ID, u2, nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for a foreign delete, got %d", status)
	}
	if status := api.do(http.MethodPost, "/tasks/"+task.ID+"/toggle", u1, nil, &task); status != http.StatusOK || !task.Completed {
		t.Fatalf("expected toggle to complete the task, got %d %+v", status, task)
	}
	if status := api.do(http.MethodDelete, "/tasks/"+task.ID, u1, nil, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
}

func TestProjectProgressOverHTTP(t *testing.T) {
	api := newAPI(t)
	token := api.login("lead")

	var project types.Project
	if status := api.do(http.MethodPost, "/projects", token, map[string]any{"title": "Launch"}, &project); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	var procs []types.Process
	for _, title := range []string{"design", "build"} {
		var p types.Process
		path := "/projects/" + project.ID + "/processes"
		if status := api.do(http.MethodPost, path, token, map[string]any{"title": title}, &p); status != http.StatusCreated {
			t.Fatalf("create process %s: %d", title, status)
		}
		procs = append(procs, p)
	}
	api.do(http.MethodPost, "/processes/"+procs[0].ID+"/toggle", token, nil, nil)

	api.do(http.MethodGet, "/projects/"+project.ID, "", nil, &project)
	if project.Progress != 50 || project.Status != types.StatusInProgress {
		t.Fatalf("expected 50%% in progress, got %d %q", project.Progress, project.Status)
	}

	other := api.login("intruder")
	if status := api.do(http.MethodPost, "/processes/"+procs[1].ID+"/toggle", other, nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestBoardPagingOverHTTP(t *testing.T) {
	api := newAPI(t)
	token := api.login("writer")
	for i := 0; i < 23; i++ {
		body := map[string]string{"title": "post", "content": "body"}
		if status := api.do(http.MethodPost, "/board", token, body, nil); status != http.StatusCreated {
			t.Fatalf("create post %d: %d", i, status)
		}
	}

	var page store.Page[types.BoardPost]
	api.do(http.MethodGet, "/board?page=3&limit=10", "", nil, &page)
	if page.TotalPages != 3 || len(page.Items) != 3 {
		t.Fatalf("expected page 3 of 3 with 3 items, got %d/%d with %d", page.Page, page.TotalPages, len(page.Items))
	}
	if status := api.do(http.MethodGet, "/board?page=zero", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed page, got %d", status)
	}
}

func TestSignupAndCheckID(t *testing.T) {
	api := newAPI(t)
	signup := map[string]string{
		"id":      "member",
		"name":    "Member",
		"email":   "member@example.com",
		"phone":   "010-0000-0001",
		"address": "Seoul",
		"avatar":  "https://example.com/m.png",
	}
	if status := api.do(http.MethodPost, "/auth/signup", "", signup, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if status := api.do(http.MethodPost, "/auth/signup", "", signup, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate id, got %d", status)
	}

	var check handlers.CheckIDResponse
	api.do(http.MethodGet, "/auth/check-id?id=member", "", nil, &check)
	if check.Available {
		t.Fatal("expected registered id to be unavailable")
	}

	signup["id"] = "other"
	signup["email"] = "broken"
	if status := api.do(http.MethodPost, "/auth/signup", "", signup, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed email, got %d", status)
	}
}

func TestSyncPullAndPresence(t *testing.T) {
	api := newAPI(t)
	token := api.login("kim")

	var pull handlers.PullResponse
	if status := api.do(http.MethodPost, "/sync/task", token, nil, &pull); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if pull.Category != types.CategoryTask {
		t.Fatalf("unexpected pull response %+v", pull)
	}
	if status := api.do(http.MethodPost, "/sync/bogus", token, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown category, got %d", status)
	}

	var online []struct {
		UserID string `json:"userId"`
	}
	if status := api.do(http.MethodPost, "/presence", token, nil, &online); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(online) != 1 || online[0].UserID != "kim" {
		t.Fatalf("unexpected presence %+v", online)
	}
}
