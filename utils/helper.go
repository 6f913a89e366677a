package utils

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// monthNamesPt holds the localized month names used in document folder
// paths, e.g. "03 - Março".
var monthNamesPt = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

func MonthNamePt(month time.Month) string {
	return monthNamesPt[int(month)-1]
}

// BuildDocumentFolderPath derives the destination folder for an uploaded
// document from the company name and the due date's year-month:
// <root>/<company>/<year>/<MM - Month>.
func BuildDocumentFolderPath(rootFolder string, companyName string, dueDate time.Time) string {
	monthSegment := fmt.Sprintf("%02d - %s", int(dueDate.Month()), MonthNamePt(dueDate.Month()))
	return path.Join(rootFolder, strings.TrimSpace(companyName), fmt.Sprint(dueDate.Year()), monthSegment)
}

// BuildDocumentFileName derives a collision-resistant file name:
// <first 8 chars of the entry id>_<document type>_<unix millis><ext>.
// The extension keeps its leading dot and is lower-cased.
func BuildDocumentFileName(entryId string, documentType string, ext string, now time.Time) string {
	idPart := entryId
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_%s_%d%s", idPart, documentType, now.UnixMilli(), ext)
}

// EndOfDay clamps t to 23:59:59.999 so inclusive date-range filters cover
// the final day entirely.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func DereferencePtr[T any](ptr *T, def ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(def) > 0 {
		return def[0]
	}
	return zero
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
