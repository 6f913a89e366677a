package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/sharepoint"
)

type fakeDrive struct {
	ensuredFolders []string
	uploadedFiles  []string
	deletedItems   []string
	urlLookups     []string
	failEnsure     bool
	failUpload     bool
	failURLsFor    map[string]bool
}

func (f *fakeDrive) EnsureFolder(ctx context.Context, folderPath string) (string, error) {
	if f.failEnsure {
		return "", errors.New("folder provisioning failed")
	}
	f.ensuredFolders = append(f.ensuredFolders, folderPath)
	return "folder-1", nil
}

func (f *fakeDrive) UploadFile(ctx context.Context, folderPath string, fileName string, content io.Reader, contentType string) (*sharepoint.DriveItem, error) {
	if f.failUpload {
		return nil, errors.New("upload failed")
	}
	f.uploadedFiles = append(f.uploadedFiles, fileName)
	return &sharepoint.DriveItem{ID: "item-1", WebURL: "https://files.example/item-1", DownloadURL: "https://files.example/item-1/content"}, nil
}

func (f *fakeDrive) DeleteItem(ctx context.Context, itemID string) error {
	f.deletedItems = append(f.deletedItems, itemID)
	return nil
}

func (f *fakeDrive) ItemURLs(ctx context.Context, itemID string) (*sharepoint.ItemURLs, error) {
	f.urlLookups = append(f.urlLookups, itemID)
	if f.failURLsFor[itemID] {
		return nil, errors.New("item lookup failed")
	}
	return &sharepoint.ItemURLs{
		WebURL:      "https://files.example/" + itemID,
		DownloadURL: "https://files.example/" + itemID + "/content",
	}, nil
}

func (f *fakeDrive) SiteID() string  { return "site-1" }
func (f *fakeDrive) DriveID() string { return "drive-1" }

func withFakes(t *testing.T, drive *fakeDrive, store func(context.Context, *models.SharePointDocument) error) {
	t.Helper()
	prevClient := newDriveClient
	prevStore := storeDocument
	newDriveClient = func() (driveClient, error) { return drive, nil }
	if store != nil {
		storeDocument = store
	}
	t.Cleanup(func() {
		newDriveClient = prevClient
		storeDocument = prevStore
	})
}

func withDocumentList(t *testing.T, docs []*models.SharePointDocument, updates *[]int) {
	t.Helper()
	prevList := listDocuments
	prevUpdate := updateDocumentURLs
	listDocuments = func(ctx context.Context, entryId string) ([]*models.SharePointDocument, error) {
		return docs, nil
	}
	updateDocumentURLs = func(ctx context.Context, id int, webUrl string, downloadUrl string) error {
		*updates = append(*updates, id)
		return nil
	}
	t.Cleanup(func() {
		listDocuments = prevList
		updateDocumentURLs = prevUpdate
	})
}

func uploadRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if withFile {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="nota.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sharepoint", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/sharepoint", sharepointPostHandler())
	return r
}

func validUploadFields() map[string]string {
	return map[string]string{
		"action":        "upload",
		"entry_id":      "11111111-2222-3333-4444-555555555555",
		"document_type": "nota_fiscal",
		"company":       "ACME LTDA",
		"due_date":      "2024-03-15",
	}
}

func TestUploadHappyPath(t *testing.T) {
	drive := &fakeDrive{}
	var stored *models.SharePointDocument
	withFakes(t, drive, func(ctx context.Context, doc *models.SharePointDocument) error {
		stored = doc
		return nil
	})

	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, validUploadFields(), true))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(drive.ensuredFolders) != 1 || drive.ensuredFolders[0] != "SOD - DOCUMENTOS_FINANCEIRO/ACME LTDA/2024/03 - Março" {
		t.Fatalf("ensured folders = %v", drive.ensuredFolders)
	}
	if len(drive.uploadedFiles) != 1 {
		t.Fatalf("uploads = %v", drive.uploadedFiles)
	}
	namePattern := regexp.MustCompile(`^11111111_nota_fiscal_\d{13}\.pdf$`)
	if !namePattern.MatchString(drive.uploadedFiles[0]) {
		t.Fatalf("file name %q does not match pattern", drive.uploadedFiles[0])
	}
	if stored == nil {
		t.Fatal("document was not persisted")
	}
	if stored.ItemId != "item-1" || stored.EntryId != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("stored doc = %+v", stored)
	}
	if len(drive.deletedItems) != 0 {
		t.Fatalf("no compensation expected on success, got deletes %v", drive.deletedItems)
	}
}

func TestUploadMissingFields(t *testing.T) {
	drive := &fakeDrive{}
	withFakes(t, drive, func(ctx context.Context, doc *models.SharePointDocument) error {
		t.Fatal("store must not be reached")
		return nil
	})

	for _, missing := range []string{"entry_id", "document_type", "company", "due_date"} {
		fields := validUploadFields()
		delete(fields, missing)

		rec := httptest.NewRecorder()
		testRouter().ServeHTTP(rec, uploadRequest(t, fields, true))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("missing %s: status = %d", missing, rec.Code)
		}
	}

	// Missing file part.
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, validUploadFields(), false))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file: status = %d", rec.Code)
	}
	if len(drive.uploadedFiles) != 0 {
		t.Fatalf("nothing should reach the drive, got %v", drive.uploadedFiles)
	}
}

func TestUploadRemoteFailureLeavesNoRow(t *testing.T) {
	drive := &fakeDrive{failUpload: true}
	withFakes(t, drive, func(ctx context.Context, doc *models.SharePointDocument) error {
		t.Fatal("store must not be reached when the remote upload fails")
		return nil
	})

	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, validUploadFields(), true))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadCompensatesFailedInsert(t *testing.T) {
	drive := &fakeDrive{}
	withFakes(t, drive, func(ctx context.Context, doc *models.SharePointDocument) error {
		return errors.New("duplicate key")
	})

	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, validUploadFields(), true))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// The remote file must be removed again when the metadata insert
	// fails, otherwise the drive and the table drift apart.
	if len(drive.deletedItems) != 1 || drive.deletedItems[0] != "item-1" {
		t.Fatalf("compensating delete = %v", drive.deletedItems)
	}
	if !strings.Contains(rec.Body.String(), "saving document metadata") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestListKeepsStaleURLWhenRefreshFails(t *testing.T) {
	drive := &fakeDrive{failURLsFor: map[string]bool{"item-2": true}}
	withFakes(t, drive, nil)

	docs := []*models.SharePointDocument{
		{ID: 1, EntryId: "e-1", ItemId: "item-1", WebUrl: "https://stale.example/1", DownloadUrl: "https://stale.example/1/content"},
		{ID: 2, EntryId: "e-1", ItemId: "item-2", WebUrl: "https://stale.example/2", DownloadUrl: "https://stale.example/2/content"},
	}
	var updates []int
	withDocumentList(t, docs, &updates)

	fields := map[string]string{"action": "list", "entry_id": "e-1"}
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, fields, false))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(drive.urlLookups) != 2 {
		t.Fatalf("url lookups = %v, want both items", drive.urlLookups)
	}
	if docs[0].WebUrl != "https://files.example/item-1" || docs[0].DownloadUrl != "https://files.example/item-1/content" {
		t.Fatalf("first doc was not refreshed: %+v", docs[0])
	}
	// The failed lookup must not drop the document or clear its URLs.
	if docs[1].WebUrl != "https://stale.example/2" || docs[1].DownloadUrl != "https://stale.example/2/content" {
		t.Fatalf("second doc lost its stored URLs: %+v", docs[1])
	}
	if len(updates) != 1 || updates[0] != 1 {
		t.Fatalf("persisted URL updates = %v, want only the refreshed row", updates)
	}
	if !strings.Contains(rec.Body.String(), "https://stale.example/2") {
		t.Fatalf("listing should include the stale document, body = %s", rec.Body.String())
	}
}

func TestSharepointPostUnknownAction(t *testing.T) {
	drive := &fakeDrive{}
	withFakes(t, drive, nil)

	fields := map[string]string{"action": "rename"}
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, uploadRequest(t, fields, false))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "upload, delete, list") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://sp.example/doc.pdf", "https://sp.example/doc.pdf?action=embedview"},
		{"https://sp.example/doc.pdf?web=1", "https://sp.example/doc.pdf?web=1&action=embedview"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := embedURL(tt.in); got != tt.want {
			t.Fatalf("embedURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
