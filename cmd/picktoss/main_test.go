package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dharsanguruparan/picktoss/internal/config"
	"github.com/dharsanguruparan/picktoss/internal/database"
	"github.com/dharsanguruparan/picktoss/internal/model"
)

// fakeAPI is a tiny in-memory picktoss server.
type fakeAPI struct {
	mu         sync.Mutex
	categories []model.Category
	documents  []model.Document
	nextID     int64
	auth       []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/categories":
		json.NewEncoder(w).Encode(map[string]any{"categories": f.categories})
	case r.Method == http.MethodPost && r.URL.Path == "/categories":
		var body struct{ Name string }
		json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		c := model.Category{ID: f.nextID, Name: body.Name}
		f.categories = append(f.categories, c)
		json.NewEncoder(w).Encode(c)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/categories/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/categories/"), 10, 64)
		out := f.categories[:0]
		for _, c := range f.categories {
			if c.ID != id {
				out = append(out, c)
			}
		}
		f.categories = out
	case r.Method == http.MethodGet && r.URL.Path == "/users/info":
		json.NewEncoder(w).Encode(model.User{
			Email:         "me@example.com",
			Subscription:  model.Subscription{Plan: model.PlanFree},
			DocumentUsage: model.DocumentUsage{CurrentPossessDocumentNum: len(f.documents), FreePlanMaxPossessDocumentNum: 5},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/documents":
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		f.nextID++
		f.documents = append(f.documents, model.Document{
			ID:           f.nextID,
			DocumentName: r.FormValue("userDocumentName"),
			Status:       model.StatusUnprocessed,
			Content:      string(data),
		})
		json.NewEncoder(w).Encode(model.CreatedDocument{ID: f.nextID})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/documents/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/documents/"), 10, 64)
		for _, d := range f.documents {
			if d.ID == id {
				json.NewEncoder(w).Encode(d)
				return
			}
		}
		http.NotFound(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/question-sets/today":
		io.WriteString(w, `{"questionSetId":"","message":"DOCUMENT_NOT_CREATED_YET"}`)
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	t   *testing.T
	api *fakeAPI
	cfg config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.StoreDSN = filepath.Join(t.TempDir(), "kv.db")
	cfg.ProgressDelay = 0
	cfg.LogLevel = "error"
	return &harness{t: t, api: api, cfg: *cfg}
}

// run executes one CLI invocation with stdin and returns stdout and stderr.
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	return h.runContext(context.Background(), stdin, args...)
}

func (h *harness) runContext(ctx context.Context, stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	load := func() (*config.Config, error) {
		cfg := h.cfg
		return &cfg, nil
	}
	cmd, closeApp := newRootCommand(load, streams{in: strings.NewReader(stdin), out: &out, errOut: &errOut})
	cmd.SetArgs(args)
	err := errors.Join(cmd.ExecuteContext(ctx), closeApp(ctx))
	return out.String(), errOut.String(), err
}

// savedSelection reads the selection the last invocation persisted.
func (h *harness) savedSelection() *model.Category {
	h.t.Helper()
	ctx := context.Background()
	kv, err := database.OpenStore(ctx, h.cfg.StoreDSN)
	if err != nil {
		h.t.Fatalf("open store: %v", err)
	}
	defer kv.Close()
	sel, err := loadSelection(ctx, kv)
	if err != nil {
		h.t.Fatalf("load selection: %v", err)
	}
	return sel
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run("", args...)
	if err != nil {
		h.t.Fatalf("picktoss %v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func TestCategoryLifecycleAcrossInvocations(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	h.api.nextID = 1

	out := h.mustRun("category", "list")
	if !strings.Contains(out, "*  1  Math") {
		t.Fatalf("expected Math selected, got:\n%s", out)
	}

	out = h.mustRun("category", "create", "History")
	if !strings.Contains(out, `created "History" (id 2)`) {
		t.Fatalf("unexpected output %q", out)
	}
	out = h.mustRun("category", "list")
	if !strings.Contains(out, "*  2  History") {
		t.Fatalf("expected History selected after create, got:\n%s", out)
	}

	out = h.mustRun("category", "delete", "2", "--yes")
	if !strings.Contains(out, `selected "Math"`) {
		t.Fatalf("expected fallback to Math, got %q", out)
	}
}

func TestCategoryCreateDuplicateFails(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Dup"}}
	_, errOut, err := h.run("", "category", "create", " Dup ")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(errOut, "already exists") {
		t.Fatalf("expected notice on stderr, got %q", errOut)
	}
	if len(h.api.categories) != 1 {
		t.Fatalf("duplicate reached the server")
	}
}

func TestCategoryDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	out, _, err := h.run("n\n", "category", "delete", "1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "cancelled") || len(h.api.categories) != 1 {
		t.Fatalf("category deleted without confirmation: %q", out)
	}
	if _, _, err := h.run("y\n", "category", "delete", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.api.categories) != 0 {
		t.Fatalf("expected category deleted")
	}
}

func TestDocUploadRejectsShortFile(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	path := filepath.Join(t.TempDir(), "short.md")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 50)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, errOut, err := h.run("", "doc", "upload", path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(errOut, "50") {
		t.Fatalf("expected length in notice, got %q", errOut)
	}
	if len(h.api.documents) != 0 {
		t.Fatalf("short document was uploaded")
	}
}

func TestDocUploadAndWrite(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	h.api.nextID = 1
	path := filepath.Join(t.TempDir(), "vectors.md")
	if err := os.WriteFile(path, []byte("# Vectors\n"+strings.Repeat("v", 400)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := h.mustRun("doc", "upload", path)
	if !strings.Contains(out, `uploaded "vectors"`) || !strings.Contains(out, "1 of 5 documents used") {
		t.Fatalf("unexpected output %q", out)
	}

	content := "# Matrices\n" + strings.Repeat("m", 400)
	out, errOut, err := h.run(content, "doc", "write")
	if err != nil {
		t.Fatalf("write: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, `uploaded "Matrices"`) {
		t.Fatalf("unexpected output %q", out)
	}
	if len(h.api.documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(h.api.documents))
	}
}

func TestAuthTokenIsSentAfterLogin(t *testing.T) {
	h := newHarness(t)
	h.mustRun("auth", "login", "Bearer abc123")
	out := h.mustRun("auth", "status")
	if !strings.Contains(out, "opaque token") {
		t.Fatalf("unexpected status %q", out)
	}
	h.mustRun("category", "list")
	last := h.api.auth[len(h.api.auth)-1]
	if last != "Bearer abc123" {
		t.Fatalf("expected bearer token, got %q", last)
	}
	h.mustRun("auth", "logout")
	if out := h.mustRun("auth", "status"); !strings.Contains(out, "not logged in") {
		t.Fatalf("unexpected status %q", out)
	}
}

func TestQuizTodayWithoutDocuments(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("quiz", "today")
	if !strings.Contains(out, "Create a category first") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestQuizDailyStopsCleanlyOnInterrupt(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	h.mustRun("category", "list")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, errOut, err := h.runContext(ctx, "", "quiz", "daily", "--at", "03:00")
	if err != nil {
		t.Fatalf("interrupted daily returned %v\nstderr: %s", err, errOut)
	}
	if !strings.Contains(errOut, "next quiz at") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
	if sel := h.savedSelection(); sel == nil || sel.ID != 1 {
		t.Fatalf("selection not kept: %+v", sel)
	}
}

func TestSelectionSavedWhenCommandFails(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	if _, _, err := h.run("", "category", "delete", "99", "--yes"); err == nil {
		t.Fatalf("expected unknown category error")
	}
	if sel := h.savedSelection(); sel == nil || sel.ID != 1 {
		t.Fatalf("repaired selection not saved: %+v", sel)
	}
}

func TestQuizTodayDropsDeletedSelection(t *testing.T) {
	h := newHarness(t)
	h.api.categories = []model.Category{{ID: 1, Name: "Math"}}
	h.mustRun("category", "list")

	h.api.categories = nil
	out := h.mustRun("quiz", "today")
	if !strings.Contains(out, "Create a category first") {
		t.Fatalf("unexpected output %q", out)
	}
	if sel := h.savedSelection(); sel != nil {
		t.Fatalf("deleted category still selected: %+v", sel)
	}
}

func TestCategoryDeleteHelpNamesYes(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("category", "delete", "--help")
	if !strings.Contains(out, "all of its documents without asking") {
		t.Fatalf("help does not describe --yes:\n%s", out)
	}
}
