package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

const defaultRootFolder = "SOD - DOCUMENTOS_FINANCEIRO"

// RootFolder is the document library root under which all financial
// documents are filed.
func RootFolder() string {
	if v := strings.TrimSpace(os.Getenv("SP_ROOT_FOLDER")); v != "" {
		return v
	}
	return defaultRootFolder
}

type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	SiteID       string
	DriveID      string

	// AuthBaseURL and GraphBaseURL are overridable for tests.
	AuthBaseURL  string
	GraphBaseURL string

	HTTPClient *http.Client
}

type Client struct {
	tenantID     string
	clientID     string
	clientSecret string
	siteID       string
	driveID      string
	authBase     string
	graphBase    string
	http         *http.Client
	logger       *logrus.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("sharepoint credentials are not configured")
	}
	if cfg.SiteID == "" || cfg.DriveID == "" {
		return nil, errors.New("sharepoint site/drive are not configured")
	}
	authBase := strings.TrimRight(cfg.AuthBaseURL, "/")
	if authBase == "" {
		authBase = "https://login.microsoftonline.com"
	}
	graphBase := strings.TrimRight(cfg.GraphBaseURL, "/")
	if graphBase == "" {
		graphBase = "https://graph.microsoft.com/v1.0"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		tenantID:     cfg.TenantID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		siteID:       cfg.SiteID,
		driveID:      cfg.DriveID,
		authBase:     authBase,
		graphBase:    graphBase,
		http:         httpClient,
		logger:       config.GetLogger(),
	}, nil
}

func NewClientFromEnv() (*Client, error) {
	return NewClient(Config{
		TenantID:     strings.TrimSpace(os.Getenv("SP_TENANT_ID")),
		ClientID:     strings.TrimSpace(os.Getenv("SP_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("SP_CLIENT_SECRET")),
		SiteID:       strings.TrimSpace(os.Getenv("SP_SITE_ID")),
		DriveID:      strings.TrimSpace(os.Getenv("SP_DRIVE_ID")),
		AuthBaseURL:  strings.TrimSpace(os.Getenv("SP_AUTH_BASE_URL")),
		GraphBaseURL: strings.TrimSpace(os.Getenv("SP_GRAPH_BASE_URL")),
	})
}

func (c *Client) SiteID() string  { return c.siteID }
func (c *Client) DriveID() string { return c.driveID }

// EnsureFolder guarantees every segment of folderPath exists in the drive,
// creating missing segments in order from the root, and returns the id of
// the deepest folder.
//
// Each segment is resolved first; a 404 triggers a create under the last
// resolved parent with conflict behavior "fail". A failed create (for
// example a concurrent creator won the race) falls back to one more
// resolve before giving up.
func (c *Client) EnsureFolder(ctx context.Context, folderPath string) (string, error) {
	segments := splitFolderPath(folderPath)
	if len(segments) == 0 {
		return "", utils.NewAppError(utils.KindFolderProvision, "folder path is empty")
	}

	parentID := ""
	accumulated := ""
	for _, segment := range segments {
		if accumulated == "" {
			accumulated = segment
		} else {
			accumulated = accumulated + "/" + segment
		}

		item, status, err := c.resolvePath(ctx, accumulated)
		if err != nil {
			return "", utils.WrapAppError(utils.KindFolderProvision, err, "resolving folder %q", segment)
		}
		if status == http.StatusOK {
			parentID = item.ID
			continue
		}
		if status != http.StatusNotFound {
			return "", utils.NewAppError(utils.KindFolderProvision, "unexpected status %d resolving folder %q", status, segment)
		}

		created, createErr := c.createFolder(ctx, parentID, segment)
		if createErr == nil {
			parentID = created.ID
			continue
		}

		// A concurrent creator may have won; re-resolve once before
		// giving up.
		item, status, err = c.resolvePath(ctx, accumulated)
		if err == nil && status == http.StatusOK {
			c.logger.WithFields(logrus.Fields{
				"folder": accumulated,
				"item":   item.ID,
			}).Warn("folder create lost a race, reusing existing folder: " + createErr.Error())
			parentID = item.ID
			continue
		}
		return "", utils.WrapAppError(utils.KindFolderProvision, createErr, "creating folder %q", segment)
	}

	return parentID, nil
}

// UploadFile streams content to <folderPath>/<fileName> and returns the
// created drive item.
func (c *Client) UploadFile(ctx context.Context, folderPath string, fileName string, content io.Reader, contentType string) (*DriveItem, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/sites/%s/drives/%s/root:/%s/%s:/content",
		c.graphBase, c.siteID, c.driveID, escapePath(folderPath), url.PathEscape(fileName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, content)
	if err != nil {
		return nil, utils.WrapAppError(utils.KindUpload, err, "building upload request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.WrapAppError(utils.KindUpload, err, "uploading %q", fileName)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.NewAppError(utils.KindUpload, "upload of %q failed (%d): %s", fileName, resp.StatusCode, graphErrorMessage(body))
	}

	var item DriveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, utils.WrapAppError(utils.KindUpload, err, "decoding upload response")
	}
	return &item, nil
}

// DeleteItem removes a drive item. An already-missing item is not an
// error; callers use this for best-effort cleanup.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/sites/%s/drives/%s/items/%s", c.graphBase, c.siteID, c.driveID, url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete of item %s failed (%d): %s", itemID, resp.StatusCode, graphErrorMessage(body))
	}
	return nil
}

// ItemURLs fetches the current web and download URLs for a drive item.
func (c *Client) ItemURLs(ctx context.Context, itemID string) (*ItemURLs, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/sites/%s/drives/%s/items/%s?select=id,webUrl,content.downloadUrl",
		c.graphBase, c.siteID, c.driveID, url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, utils.NewAppError(utils.KindNotFound, "item %s not found", itemID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("item lookup %s failed (%d): %s", itemID, resp.StatusCode, graphErrorMessage(body))
	}

	var item DriveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &ItemURLs{WebURL: item.WebURL, DownloadURL: item.DownloadURL}, nil
}

// resolvePath looks up a drive item by path relative to the drive root.
// Returns the HTTP status so callers can distinguish "not found" from
// failure.
func (c *Client) resolvePath(ctx context.Context, relativePath string) (*DriveItem, int, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := fmt.Sprintf("%s/sites/%s/drives/%s/root:/%s", c.graphBase, c.siteID, c.driveID, escapePath(relativePath))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		var item DriveItem
		if err := json.Unmarshal(body, &item); err != nil {
			return nil, resp.StatusCode, err
		}
		return &item, resp.StatusCode, nil
	}
	return nil, resp.StatusCode, nil
}

func (c *Client) createFolder(ctx context.Context, parentID string, name string) (*DriveItem, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var endpoint string
	if parentID == "" {
		endpoint = fmt.Sprintf("%s/sites/%s/drives/%s/root/children", c.graphBase, c.siteID, c.driveID)
	} else {
		endpoint = fmt.Sprintf("%s/sites/%s/drives/%s/items/%s/children", c.graphBase, c.siteID, c.driveID, url.PathEscape(parentID))
	}

	payload, err := json.Marshal(createFolderRequest{
		Name:             name,
		Folder:           map[string]interface{}{},
		ConflictBehavior: "fail",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create folder %q failed (%d): %s", name, resp.StatusCode, graphErrorMessage(body))
	}

	var item DriveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func splitFolderPath(folderPath string) []string {
	parts := strings.Split(strings.Trim(folderPath, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func escapePath(relativePath string) string {
	segments := splitFolderPath(relativePath)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func graphErrorMessage(body []byte) string {
	var parsed graphErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
