package sharepoint

// DriveItem is the subset of the Graph drive-item resource this service
// reads back from resolve/create/upload responses.
type DriveItem struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Size        int64                  `json:"size"`
	WebURL      string                 `json:"webUrl"`
	DownloadURL string                 `json:"@microsoft.graph.downloadUrl"`
	Folder      map[string]interface{} `json:"folder,omitempty"`
}

type ItemURLs struct {
	WebURL      string `json:"webUrl"`
	DownloadURL string `json:"downloadUrl"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type createFolderRequest struct {
	Name             string                 `json:"name"`
	Folder           map[string]interface{} `json:"folder"`
	ConflictBehavior string                 `json:"@microsoft.graph.conflictBehavior"`
}

type graphErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
