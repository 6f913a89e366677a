package models

import (
	"context"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/utils"
)

// SharePointDocument links an entry to a file stored remotely. The row is
// created only after the remote upload succeeds; the upload flow deletes
// the remote file again if this insert fails, so a persisted row never
// references a remote file that was never stored. The reverse (an
// orphaned remote file after a failed compensation) is an accepted gap,
// logged only.
type SharePointDocument struct {
	ID           int       `gorm:"primary_key" json:"id"`
	EntryId      string    `gorm:"size:64;index;not null" json:"entry_id"`
	DocumentType string    `gorm:"size:100;not null" json:"document_type"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	Extension    string    `gorm:"size:20" json:"extension"`
	SizeBytes    int64     `json:"size_bytes"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	SiteId       string    `gorm:"size:255" json:"site_id"`
	DriveId      string    `gorm:"size:255" json:"drive_id"`
	ItemId       string    `gorm:"size:255;index" json:"item_id"`
	WebUrl       string    `gorm:"size:1000" json:"web_url"`
	DownloadUrl  string    `gorm:"size:2000" json:"download_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *SharePointDocument) Store(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(d).Error
}

func (d *SharePointDocument) Delete(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(d).Error
}

func GetSharePointDocument(ctx context.Context, id int) (*SharePointDocument, error) {
	var result SharePointDocument
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// ListSharePointDocuments returns all documents for an entry, newest
// first.
func ListSharePointDocuments(ctx context.Context, entryId string) ([]*SharePointDocument, error) {
	var results []*SharePointDocument
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("entry_id = ?", entryId).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateDocumentURLs refreshes the cached remote URLs on a record.
func UpdateDocumentURLs(ctx context.Context, id int, webUrl string, downloadUrl string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&SharePointDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"web_url":      webUrl,
			"download_url": downloadUrl,
		}).Error
}
