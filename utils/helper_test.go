package utils

import (
	"testing"
	"time"
)

func TestBuildDocumentFolderPath(t *testing.T) {
	tests := []struct {
		name    string
		company string
		dueDate time.Time
		want    string
	}{
		{
			name:    "march",
			company: "ACME LTDA",
			dueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			want:    "SOD - DOCUMENTOS_FINANCEIRO/ACME LTDA/2024/03 - Março",
		},
		{
			name:    "december",
			company: "Beta",
			dueDate: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			want:    "SOD - DOCUMENTOS_FINANCEIRO/Beta/2023/12 - Dezembro",
		},
		{
			name:    "company name is trimmed",
			company: "  Beta  ",
			dueDate: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			want:    "SOD - DOCUMENTOS_FINANCEIRO/Beta/2023/01 - Janeiro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDocumentFolderPath("SOD - DOCUMENTOS_FINANCEIRO", tt.company, tt.dueDate)
			if got != tt.want {
				t.Fatalf("BuildDocumentFolderPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDocumentFileName(t *testing.T) {
	now := time.UnixMilli(1710500000000)

	got := BuildDocumentFileName("11111111-2222-3333-4444-555555555555", "nota_fiscal", ".PDF", now)
	want := "11111111_nota_fiscal_1710500000000.pdf"
	if got != want {
		t.Fatalf("BuildDocumentFileName() = %q, want %q", got, want)
	}

	// Short ids are kept whole; extensions gain a dot when missing.
	got = BuildDocumentFileName("42", "recibo", "jpg", now)
	want = "42_recibo_1710500000000.jpg"
	if got != want {
		t.Fatalf("BuildDocumentFileName() = %q, want %q", got, want)
	}
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2024, 6, 10, 14, 30, 12, 0, time.UTC)
	got := EndOfDay(in)
	want := time.Date(2024, 6, 10, 23, 59, 59, 999000000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("EndOfDay() = %v, want %v", got, want)
	}

	boundary := time.Date(2024, 6, 10, 23, 59, 59, 999000000, time.UTC)
	next := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	if !boundary.Before(next) {
		t.Fatalf("end of day should sort before the next day's start")
	}
}

func TestMonthNamePt(t *testing.T) {
	if got := MonthNamePt(time.March); got != "Março" {
		t.Fatalf("MonthNamePt(March) = %q", got)
	}
	if got := MonthNamePt(time.January); got != "Janeiro" {
		t.Fatalf("MonthNamePt(January) = %q", got)
	}
}
