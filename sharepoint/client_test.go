package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, authURL, graphURL string) *Client {
	t.Helper()
	// The token slot is shared process-wide; start each test empty.
	cachedToken = ""
	tokenExpiry = time.Time{}
	client, err := NewClient(Config{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		SiteID:       "site-1",
		DriveID:      "drive-1",
		AuthBaseURL:  authURL,
		GraphBaseURL: graphURL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func tokenServer(t *testing.T, exchanges *int, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token") {
			t.Errorf("unexpected auth request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("scope"); got != "https://graph.microsoft.com/.default" {
			t.Errorf("scope = %q", got)
		}
		*exchanges++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, *exchanges, expiresIn)
	}))
}

func TestAccessTokenIsCached(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	client := newTestClient(t, auth.URL, "http://graph.invalid")

	first, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	second, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached token, got %q then %q", first, second)
	}
	if exchanges != 1 {
		t.Fatalf("expected 1 token exchange, got %d", exchanges)
	}
}

func TestAccessTokenSharedAcrossClients(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	// Handlers build a fresh client per request; the cached token must
	// survive into the second client so only one exchange happens.
	first := newTestClient(t, auth.URL, "http://graph.invalid")
	if _, err := first.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	second, err := NewClient(Config{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		SiteID:       "site-1",
		DriveID:      "drive-1",
		AuthBaseURL:  auth.URL,
		GraphBaseURL: "http://graph.invalid",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := second.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if exchanges != 1 {
		t.Fatalf("expected 1 token exchange across two clients, got %d", exchanges)
	}
}

func TestAccessTokenRefreshesWithinSafetyMargin(t *testing.T) {
	exchanges := 0
	// expires_in below the 300s safety margin: the computed expiry is
	// already in the past, so every call re-exchanges.
	auth := tokenServer(t, &exchanges, 60)
	defer auth.Close()

	client := newTestClient(t, auth.URL, "http://graph.invalid")

	if _, err := client.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if _, err := client.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if exchanges != 2 {
		t.Fatalf("expected 2 token exchanges, got %d", exchanges)
	}
}

func TestAccessTokenErrorIncludesProviderBody(t *testing.T) {
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer auth.Close()

	client := newTestClient(t, auth.URL, "http://graph.invalid")

	_, err := client.AccessToken(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid_client") {
		t.Fatalf("error should carry the provider body, got %q", err.Error())
	}
}

// graphFixture fakes just enough of the drive API for folder and item
// operations: path resolution, child creation, upload, delete.
type graphFixture struct {
	existing map[string]string // relative path -> item id
	// winner simulates a concurrent creator: creating the last segment of
	// one of these paths fails with 409 and the path resolves afterwards.
	winner  map[string]string // relative path -> item id the other writer created
	creates int
	deletes []string
	uploads []string
}

func (g *graphFixture) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("missing bearer token on %s %s", r.Method, r.URL.Path)
		}

		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/root:/"):
			rel := strings.SplitN(r.URL.Path, "/root:/", 2)[1]
			id, ok := g.existing[rel]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":{"code":"itemNotFound","message":"not found"}}`)
				return
			}
			json.NewEncoder(w).Encode(DriveItem{ID: id, Name: rel})

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/children"):
			var req createFolderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding create request: %v", err)
			}
			if req.ConflictBehavior != "fail" {
				t.Errorf("conflictBehavior = %q, want fail", req.ConflictBehavior)
			}
			for rel, id := range g.winner {
				if path.Base(rel) == req.Name {
					g.existing[rel] = id
					w.WriteHeader(http.StatusConflict)
					fmt.Fprint(w, `{"error":{"code":"nameAlreadyExists","message":"name already exists"}}`)
					return
				}
			}
			g.creates++
			id := fmt.Sprintf("created-%d", g.creates)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(DriveItem{ID: id, Name: req.Name})

		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, ":/content"):
			g.uploads = append(g.uploads, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(DriveItem{ID: "item-1", WebURL: "https://files.example/item-1"})

		case r.Method == http.MethodDelete:
			parts := strings.Split(r.URL.Path, "/")
			g.deletes = append(g.deletes, parts[len(parts)-1])
			w.WriteHeader(http.StatusNoContent)

		default:
			t.Errorf("unexpected graph request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}
}

func TestEnsureFolderCreatesMissingSegments(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	fixture := &graphFixture{existing: map[string]string{
		"Root":      "root-id",
		"Root/ACME": "acme-id",
	}}
	graph := httptest.NewServer(fixture.handler(t))
	defer graph.Close()

	client := newTestClient(t, auth.URL, graph.URL)

	leaf, err := client.EnsureFolder(context.Background(), "Root/ACME/2024/03 - Março")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	// Two segments existed, two had to be created; the leaf is the last
	// created folder.
	if fixture.creates != 2 {
		t.Fatalf("expected 2 folder creates, got %d", fixture.creates)
	}
	if leaf != "created-2" {
		t.Fatalf("leaf id = %q, want created-2", leaf)
	}
}

func TestEnsureFolderIsIdempotent(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	fixture := &graphFixture{existing: map[string]string{
		"Root":           "root-id",
		"Root/ACME":      "acme-id",
		"Root/ACME/2024": "year-id",
	}}
	graph := httptest.NewServer(fixture.handler(t))
	defer graph.Close()

	client := newTestClient(t, auth.URL, graph.URL)

	for i := 0; i < 2; i++ {
		leaf, err := client.EnsureFolder(context.Background(), "Root/ACME/2024")
		if err != nil {
			t.Fatalf("EnsureFolder pass %d: %v", i+1, err)
		}
		if leaf != "year-id" {
			t.Fatalf("leaf id = %q, want year-id", leaf)
		}
	}
	if fixture.creates != 0 {
		t.Fatalf("expected no folder creates for existing path, got %d", fixture.creates)
	}
}

func TestEnsureFolderFallsBackWhenCreateLosesRace(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	// "Root/ACME" is missing on first resolve; the create is rejected with
	// 409 as if another writer got there first, and the fallback resolve
	// must pick up the winner's folder and keep walking.
	fixture := &graphFixture{
		existing: map[string]string{"Root": "root-id"},
		winner:   map[string]string{"Root/ACME": "acme-won"},
	}
	graph := httptest.NewServer(fixture.handler(t))
	defer graph.Close()

	client := newTestClient(t, auth.URL, graph.URL)

	leaf, err := client.EnsureFolder(context.Background(), "Root/ACME/2024")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if leaf != "created-1" {
		t.Fatalf("leaf id = %q, want created-1", leaf)
	}
	// Only "2024" was actually created here; "ACME" came from the winner.
	if fixture.creates != 1 {
		t.Fatalf("expected 1 folder create, got %d", fixture.creates)
	}
}

func TestUploadFileReturnsDriveItem(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	fixture := &graphFixture{existing: map[string]string{}}
	graph := httptest.NewServer(fixture.handler(t))
	defer graph.Close()

	client := newTestClient(t, auth.URL, graph.URL)

	item, err := client.UploadFile(context.Background(), "Root/ACME", "doc.pdf", strings.NewReader("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if item.ID != "item-1" {
		t.Fatalf("item id = %q", item.ID)
	}
	if len(fixture.uploads) != 1 || !strings.HasSuffix(fixture.uploads[0], ":/content") {
		t.Fatalf("unexpected upload paths: %v", fixture.uploads)
	}
}

func TestDeleteItemToleratesMissing(t *testing.T) {
	exchanges := 0
	auth := tokenServer(t, &exchanges, 3600)
	defer auth.Close()

	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer graph.Close()

	client := newTestClient(t, auth.URL, graph.URL)

	if err := client.DeleteItem(context.Background(), "gone"); err != nil {
		t.Fatalf("DeleteItem on missing item should not error, got %v", err)
	}
}

func TestSplitFolderPath(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"/Root/ACME/2024", 3},
		{"Root", 1},
		{"", 0},
		{"//", 0},
		{"a/ /b", 2},
	}
	for _, tt := range tests {
		if got := splitFolderPath(tt.in); len(got) != tt.want {
			t.Fatalf("splitFolderPath(%q) = %v, want %d segments", tt.in, got, tt.want)
		}
	}
}

func TestTokenExpirySafetyMargin(t *testing.T) {
	if tokenExpirySafetyMargin != 300*time.Second {
		t.Fatalf("safety margin = %v", tokenExpirySafetyMargin)
	}
}
