package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/utils"
)

func testChart() *models.ChartOfAccounts {
	return &models.ChartOfAccounts{
		Types: []*models.AccountType{
			{ID: 1, Name: "Receita Operacional"},
			{ID: 2, Name: "Despesa Operacional"},
		},
		Groups: []*models.AccountGroup{
			{ID: 10, Name: "Receitas de Locação", TypeId: 1},
			{ID: 20, Name: "Despesas Administrativas", TypeId: 2},
		},
		Categories: []*models.AccountCategory{
			{ID: 100, Name: "Aluguéis", GroupId: 10},
			{ID: 200, Name: "Serviços", GroupId: 20},
		},
		Subcategories: []*models.AccountSubcategory{
			{ID: 1000, Name: "Aluguel Mensal", CategoryId: 100},
			{ID: 1001, Name: "Aluguel Eventual", CategoryId: 100},
			{ID: 2000, Name: "Contabilidade", CategoryId: 200},
		},
	}
}

func settledEntry(subcategoryId int, gross int64, settledOn time.Time) *models.Entry {
	return &models.Entry{
		CompanyId:      1,
		SubcategoryId:  subcategoryId,
		GrossAmount:    decimal.NewFromInt(gross),
		DueDate:        settledOn,
		SettlementDate: &settledOn,
		Settled:        utils.NewTrue(),
	}
}

func feb(year int) time.Time { return time.Date(year, 2, 10, 0, 0, 0, 0, time.UTC) }
func mar(year int) time.Time { return time.Date(year, 3, 5, 0, 0, 0, 0, time.UTC) }

func testEntries2024() []*models.Entry {
	net := decimal.NewFromInt(400)
	e2 := settledEntry(1001, 500, feb(2024))
	e2.NetAmount = &net // net preferred over gross

	return []*models.Entry{
		settledEntry(1000, 600, feb(2024)),
		e2,
		settledEntry(2000, 400, mar(2024)),
	}
}

func TestBuildDREReportKpis(t *testing.T) {
	response, err := BuildDREReport(testEntries2024(), testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}

	if got := response.Kpis.Revenue; !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("revenue = %s, want 1000", got)
	}
	if got := response.Kpis.Expense; !got.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expense = %s, want 400", got)
	}
	if got := response.Kpis.Result; !got.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("result = %s, want 600", got)
	}

	// No prior-year data: every YoY stays nil.
	for _, row := range response.Rows {
		if row.YoYPercent != nil {
			t.Fatalf("row %s/%s has YoY %s with no prior year", row.TypeName, row.SubcategoryName, row.YoYPercent)
		}
	}
}

func TestBuildDREReportPercentagesSumPerType(t *testing.T) {
	response, err := BuildDREReport(testEntries2024(), testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}

	sums := make(map[int]decimal.Decimal)
	for _, row := range response.Rows {
		sums[row.TypeId] = sums[row.TypeId].Add(row.PercentOfType)
	}
	epsilon := decimal.NewFromFloat(0.0001)
	for typeId, sum := range sums {
		if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(epsilon) {
			t.Fatalf("type %d percentages sum to %s, want 100", typeId, sum)
		}
	}

	// The revenue split is 600/1000 and 400/1000.
	for _, row := range response.Rows {
		if row.SubcategoryId == 1000 && !row.PercentOfType.Equal(decimal.NewFromInt(60)) {
			t.Fatalf("subcategory 1000 percent = %s, want 60", row.PercentOfType)
		}
		if row.SubcategoryId == 1001 && !row.PercentOfType.Equal(decimal.NewFromInt(40)) {
			t.Fatalf("subcategory 1001 percent = %s, want 40", row.PercentOfType)
		}
	}
}

func TestBuildDREReportYoY(t *testing.T) {
	entries := append(testEntries2024(),
		settledEntry(1000, 500, feb(2023)),
		settledEntry(2000, 400, mar(2023)),
	)

	response, err := BuildDREReport(entries, testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}

	for _, row := range response.Rows {
		switch row.SubcategoryId {
		case 1000:
			// (600-500)/500*100
			if row.YoYPercent == nil || !row.YoYPercent.Equal(decimal.NewFromInt(20)) {
				t.Fatalf("subcategory 1000 YoY = %v, want 20", row.YoYPercent)
			}
		case 2000:
			if row.YoYPercent == nil || !row.YoYPercent.IsZero() {
				t.Fatalf("subcategory 2000 YoY = %v, want 0", row.YoYPercent)
			}
		case 1001:
			// No 2023 amount for this tuple: nil, not -100.
			if row.YoYPercent != nil {
				t.Fatalf("subcategory 1001 YoY = %s, want nil", row.YoYPercent)
			}
		}
	}
}

func TestBuildDREReportTree(t *testing.T) {
	response, err := BuildDREReport(testEntries2024(), testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}

	if len(response.Tree) != 2 {
		t.Fatalf("expected 2 type nodes, got %d", len(response.Tree))
	}
	// Revenue types sort first regardless of totals.
	if response.Tree[0].Name != "Receita Operacional" {
		t.Fatalf("first tree node = %q", response.Tree[0].Name)
	}

	revenue := response.Tree[0]
	if !revenue.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("revenue type total = %s", revenue.Amount)
	}
	if len(revenue.Children) != 1 {
		t.Fatalf("revenue groups = %d, want 1", len(revenue.Children))
	}
	group := revenue.Children[0]
	if group.Level != "grupo" || !group.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("group node = %s %s", group.Level, group.Amount)
	}
	// Group percent is relative to the type total.
	if !group.PercentOfType.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("group percent = %s, want 100", group.PercentOfType)
	}
	category := group.Children[0]
	if len(category.Children) != 2 {
		t.Fatalf("category leaves = %d, want 2", len(category.Children))
	}
	// Children sort by descending value.
	if !category.Children[0].Amount.GreaterThanOrEqual(category.Children[1].Amount) {
		t.Fatalf("leaves out of order: %s then %s", category.Children[0].Amount, category.Children[1].Amount)
	}

	// Leaf sums equal the parent at every level.
	var leafSum decimal.Decimal
	for _, leaf := range category.Children {
		leafSum = leafSum.Add(leaf.Amount)
	}
	if !leafSum.Equal(category.Amount) {
		t.Fatalf("leaf sum %s != category %s", leafSum, category.Amount)
	}
}

func TestBuildDREReportMonthlySeries(t *testing.T) {
	response, err := BuildDREReport(testEntries2024(), testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}

	if len(response.Monthly) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(response.Monthly))
	}
	for i, bucket := range response.Monthly {
		if bucket.Month != i+1 {
			t.Fatalf("bucket %d month = %d", i, bucket.Month)
		}
	}
	if got := response.Monthly[1].Revenue; !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("february revenue = %s, want 1000", got)
	}
	if got := response.Monthly[2].Expense; !got.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("march expense = %s, want 400", got)
	}
	if !response.Monthly[0].Revenue.IsZero() || !response.Monthly[0].Expense.IsZero() {
		t.Fatalf("january should be zero, got %s/%s", response.Monthly[0].Revenue, response.Monthly[0].Expense)
	}
}

func TestBuildDREReportDateRangeClampsEndOfDay(t *testing.T) {
	settledAt := time.Date(2024, 2, 29, 15, 45, 0, 0, time.UTC)
	entry := settledEntry(1000, 100, settledAt)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	response, err := BuildDREReport([]*models.Entry{entry}, testChart(), DREFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}
	if len(response.Rows) != 1 {
		t.Fatalf("entry settled within the end date's day should be included, got %d rows", len(response.Rows))
	}
}

func TestBuildDREReportSkipsUnresolvableAndUnsettled(t *testing.T) {
	due := feb(2024)
	broken := settledEntry(9999, 100, due) // subcategory not in the chart
	unsettled := &models.Entry{
		CompanyId:     1,
		SubcategoryId: 1000,
		GrossAmount:   decimal.NewFromInt(100),
		DueDate:       due,
		Settled:       utils.NewFalse(),
	}

	response, err := BuildDREReport([]*models.Entry{broken, unsettled}, testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}
	if len(response.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(response.Rows))
	}
}

func TestBuildDREReportReferenceDatePrefersSettlement(t *testing.T) {
	// Due in 2023 but settled in 2024: belongs to 2024.
	settledAt := feb(2024)
	entry := &models.Entry{
		CompanyId:      1,
		SubcategoryId:  1000,
		GrossAmount:    decimal.NewFromInt(250),
		DueDate:        time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC),
		SettlementDate: &settledAt,
		Settled:        utils.NewTrue(),
	}

	response, err := BuildDREReport([]*models.Entry{entry}, testChart(), DREFilter{Year: 2024})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}
	if len(response.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(response.Rows))
	}

	response, err = BuildDREReport([]*models.Entry{entry}, testChart(), DREFilter{Year: 2023})
	if err != nil {
		t.Fatalf("BuildDREReport: %v", err)
	}
	if len(response.Rows) != 0 {
		t.Fatalf("entry settled in 2024 must not appear in 2023, got %d rows", len(response.Rows))
	}
}

func TestDREFilterValidate(t *testing.T) {
	if err := (&DREFilter{}).Validate(); err == nil {
		t.Fatal("empty filter should fail validation")
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := (&DREFilter{StartDate: &start, EndDate: &end}).Validate(); err == nil {
		t.Fatal("inverted range should fail validation")
	}

	if err := (&DREFilter{Year: 2024}).Validate(); err != nil {
		t.Fatalf("year-only filter should validate, got %v", err)
	}
}
