package main

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/sharepoint"
	"github.com/soddigital/financeiro_backend/utils"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var documentMimeTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"application/msword": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/xml": true,
	"text/xml":        true,
}

// driveClient is the slice of the sharepoint client the handlers use.
type driveClient interface {
	EnsureFolder(ctx context.Context, folderPath string) (string, error)
	UploadFile(ctx context.Context, folderPath string, fileName string, content io.Reader, contentType string) (*sharepoint.DriveItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	ItemURLs(ctx context.Context, itemID string) (*sharepoint.ItemURLs, error)
	SiteID() string
	DriveID() string
}

var newDriveClient = func() (driveClient, error) {
	return sharepoint.NewClientFromEnv()
}

var storeDocument = func(ctx context.Context, doc *models.SharePointDocument) error {
	return doc.Store(ctx)
}

var listDocuments = func(ctx context.Context, entryId string) ([]*models.SharePointDocument, error) {
	return models.ListSharePointDocuments(ctx, entryId)
}

var updateDocumentURLs = func(ctx context.Context, id int, webUrl string, downloadUrl string) error {
	return models.UpdateDocumentURLs(ctx, id, webUrl, downloadUrl)
}

// sharepointPostHandler is the document proxy. The frontend posts a
// single endpoint with an action discriminator instead of one route per
// verb, so the handler dispatches on the form field.
func sharepointPostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		action := strings.ToLower(strings.TrimSpace(c.PostForm("action")))
		switch action {
		case "upload":
			handleDocumentUpload(c)
		case "delete":
			handleDocumentDelete(c)
		case "list":
			handleDocumentList(c)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "action must be one of upload, delete, list"})
		}
	}
}

func handleDocumentUpload(c *gin.Context) {
	logger := config.GetLogger()
	ctx, span := tracer.Start(c.Request.Context(), "sharepoint.upload")
	defer span.End()

	entryId := strings.TrimSpace(c.PostForm("entry_id"))
	documentType := strings.TrimSpace(c.PostForm("document_type"))
	companyName := strings.TrimSpace(c.PostForm("company"))
	dueDateRaw := strings.TrimSpace(c.PostForm("due_date"))
	if entryId == "" || documentType == "" || companyName == "" || dueDateRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry_id, document_type, company and due_date are required"})
		return
	}

	dueDate, err := time.Parse("2006-01-02", dueDateRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !documentMimeTypes[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file extension is required"})
		return
	}

	client, err := newDriveClient()
	if err != nil {
		config.LogError(logger, "uploads.go", "handleDocumentUpload", "NewClientFromEnv", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document storage is not configured"})
		return
	}

	folderPath := utils.BuildDocumentFolderPath(sharepoint.RootFolder(), companyName, dueDate)
	fileName := utils.BuildDocumentFileName(entryId, documentType, ext, time.Now())

	if _, err := client.EnsureFolder(ctx, folderPath); err != nil {
		config.LogError(logger, "uploads.go", "handleDocumentUpload", "EnsureFolder "+folderPath, nil, err)
		c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	item, err := client.UploadFile(ctx, folderPath, fileName, file, contentType)
	if err != nil {
		config.LogError(logger, "uploads.go", "handleDocumentUpload", "UploadFile "+fileName, nil, err)
		c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	doc := &models.SharePointDocument{
		EntryId:      entryId,
		DocumentType: documentType,
		FileName:     fileName,
		OriginalName: header.Filename,
		Extension:    strings.ToLower(strings.TrimPrefix(ext, ".")),
		SizeBytes:    header.Size,
		MimeType:     contentType,
		SiteId:       client.SiteID(),
		DriveId:      client.DriveID(),
		ItemId:       item.ID,
		WebUrl:       item.WebURL,
		DownloadUrl:  item.DownloadURL,
	}
	if err := storeDocument(ctx, doc); err != nil {
		// The remote file exists but the metadata row does not; remove
		// the remote file so the two sides stay consistent. The cleanup
		// is best-effort: a failure here leaves an orphaned remote file,
		// which is logged and accepted.
		if delErr := client.DeleteItem(ctx, item.ID); delErr != nil {
			config.LogError(logger, "uploads.go", "handleDocumentUpload", "compensating DeleteItem "+item.ID, nil, delErr)
		}
		config.LogError(logger, "uploads.go", "handleDocumentUpload", "Store", doc, err)
		appErr := utils.WrapAppError(utils.KindPersistence, err, "saving document metadata")
		c.JSON(utils.HTTPStatus(appErr), gin.H{"error": appErr.Error()})
		return
	}

	logger.WithFields(logrus.Fields{
		"entry_id":  entryId,
		"file_name": fileName,
		"item_id":   item.ID,
		"folder":    folderPath,
		"size":      header.Size,
	}).Info("[document.upload]")

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func handleDocumentDelete(c *gin.Context) {
	logger := config.GetLogger()
	ctx := c.Request.Context()

	id, err := strconv.Atoi(strings.TrimSpace(c.PostForm("document_id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
		return
	}

	doc, err := models.GetSharePointDocument(ctx, id)
	if err != nil {
		c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	// The row is authoritative: a failed remote delete must not keep a
	// dangling metadata row alive, so the remote side is best-effort.
	if client, clientErr := newDriveClient(); clientErr == nil {
		if delErr := client.DeleteItem(ctx, doc.ItemId); delErr != nil {
			config.LogError(logger, "uploads.go", "handleDocumentDelete", "DeleteItem "+doc.ItemId, nil, delErr)
		}
	} else {
		config.LogError(logger, "uploads.go", "handleDocumentDelete", "NewClientFromEnv", nil, clientErr)
	}

	if err := doc.Delete(ctx); err != nil {
		config.LogError(logger, "uploads.go", "handleDocumentDelete", "Delete", doc, err)
		appErr := utils.WrapAppError(utils.KindPersistence, err, "deleting document metadata")
		c.JSON(utils.HTTPStatus(appErr), gin.H{"error": appErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
}

func handleDocumentList(c *gin.Context) {
	logger := config.GetLogger()
	ctx := c.Request.Context()

	entryId := strings.TrimSpace(c.PostForm("entry_id"))
	if entryId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry_id is required"})
		return
	}

	docs, err := listDocuments(ctx, entryId)
	if err != nil {
		c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	// Download URLs from Graph are short-lived; refresh per item. A failed
	// refresh keeps the stored (possibly stale) URL rather than dropping
	// the document from the listing.
	if client, clientErr := newDriveClient(); clientErr == nil {
		for _, doc := range docs {
			urls, urlErr := client.ItemURLs(ctx, doc.ItemId)
			if urlErr != nil {
				config.LogError(logger, "uploads.go", "handleDocumentList", "ItemURLs "+doc.ItemId, nil, urlErr)
				continue
			}
			doc.WebUrl = urls.WebURL
			doc.DownloadUrl = urls.DownloadURL
			if err := updateDocumentURLs(ctx, doc.ID, urls.WebURL, urls.DownloadURL); err != nil {
				config.LogError(logger, "uploads.go", "handleDocumentList", "UpdateDocumentURLs", doc.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": docs})
}

// sharepointGetHandler serves view/download links for a stored document:
// a fresh download URL, or the web URL plus an embed variant.
func sharepointGetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := strconv.Atoi(strings.TrimSpace(c.Query("id")))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}
		action := strings.ToLower(strings.TrimSpace(c.Query("action")))
		if action != "view" && action != "download" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action must be view or download"})
			return
		}

		doc, err := models.GetSharePointDocument(ctx, id)
		if err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		webUrl := doc.WebUrl
		downloadUrl := doc.DownloadUrl
		if client, clientErr := newDriveClient(); clientErr == nil {
			if urls, urlErr := client.ItemURLs(ctx, doc.ItemId); urlErr == nil {
				webUrl = urls.WebURL
				downloadUrl = urls.DownloadURL
			}
		}

		if action == "download" {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{
				"id":           doc.ID,
				"file_name":    doc.FileName,
				"download_url": downloadUrl,
			}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"id":        doc.ID,
			"file_name": doc.FileName,
			"web_url":   webUrl,
			"embed_url": embedURL(webUrl),
		}})
	}
}

// embedURL rewrites a SharePoint web URL into its inline-viewer form.
func embedURL(webUrl string) string {
	if webUrl == "" {
		return ""
	}
	if strings.Contains(webUrl, "?") {
		return webUrl + "&action=embedview"
	}
	return webUrl + "?action=embedview"
}
