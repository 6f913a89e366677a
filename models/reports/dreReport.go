package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soddigital/financeiro_backend/models"
	"github.com/soddigital/financeiro_backend/utils"
)

// DREFilter selects the reporting period plus optional company/project
// scope. Either Year or the Start/End pair must be set; EndDate is
// clamped to the end of its day so the final day is fully included.
type DREFilter struct {
	Year      int        `json:"year"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CompanyId int        `json:"company_id"`
	ProjectId int        `json:"project_id"`
}

func (f *DREFilter) Validate() error {
	if f.Year == 0 && (f.StartDate == nil || f.EndDate == nil) {
		return utils.NewAppError(utils.KindValidation, "either year or start/end dates are required")
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return utils.NewAppError(utils.KindValidation, "end date is before start date")
	}
	return nil
}

// referenceYear anchors the prior-year comparison: the explicit year, or
// the year the date range starts in.
func (f *DREFilter) referenceYear() int {
	if f.Year > 0 {
		return f.Year
	}
	return f.StartDate.Year()
}

func (f *DREFilter) contains(t time.Time) bool {
	if f.Year > 0 {
		return t.Year() == f.Year
	}
	start := utils.StartOfDay(*f.StartDate)
	end := utils.EndOfDay(*f.EndDate)
	return !t.Before(start) && !t.After(end)
}

type DRERow struct {
	TypeId          int              `json:"tipo_id"`
	TypeName        string           `json:"tipo"`
	GroupId         int              `json:"grupo_id"`
	GroupName       string           `json:"grupo"`
	CategoryId      int              `json:"categoria_id"`
	CategoryName    string           `json:"categoria"`
	SubcategoryId   int              `json:"subcategoria_id"`
	SubcategoryName string           `json:"subcategoria"`
	Amount          decimal.Decimal  `json:"valor"`
	PercentOfType   decimal.Decimal  `json:"percentual_tipo"`
	YoYPercent      *decimal.Decimal `json:"yoy_percent"`
}

// DRENode is one node of the nested Type > Group > Category >
// Subcategory view. Group and category percentages are relative to the
// ancestor type's total, not the grand total.
type DRENode struct {
	Id            int              `json:"id"`
	Name          string           `json:"nome"`
	Level         string           `json:"nivel"`
	Amount        decimal.Decimal  `json:"valor"`
	PercentOfType decimal.Decimal  `json:"percentual_tipo"`
	YoYPercent    *decimal.Decimal `json:"yoy_percent,omitempty"`
	Children      []*DRENode       `json:"children,omitempty"`
}

type DREKpis struct {
	Revenue decimal.Decimal `json:"total_receitas"`
	Expense decimal.Decimal `json:"total_despesas"`
	Result  decimal.Decimal `json:"resultado"`
}

type DREMonthBucket struct {
	Month   int             `json:"mes"`
	Revenue decimal.Decimal `json:"receitas"`
	Expense decimal.Decimal `json:"despesas"`
}

type DREResponse struct {
	Rows    []*DRERow         `json:"rows"`
	Tree    []*DRENode        `json:"tree"`
	Kpis    DREKpis           `json:"kpis"`
	Monthly []*DREMonthBucket `json:"monthly"`
}

// chartIndex holds the four lookup tables keyed by id, built once per
// request so chain resolution is a hash lookup instead of a linear scan.
type chartIndex struct {
	types         map[int]*models.AccountType
	groups        map[int]*models.AccountGroup
	categories    map[int]*models.AccountCategory
	subcategories map[int]*models.AccountSubcategory
}

func newChartIndex(chart *models.ChartOfAccounts) *chartIndex {
	idx := &chartIndex{
		types:         make(map[int]*models.AccountType, len(chart.Types)),
		groups:        make(map[int]*models.AccountGroup, len(chart.Groups)),
		categories:    make(map[int]*models.AccountCategory, len(chart.Categories)),
		subcategories: make(map[int]*models.AccountSubcategory, len(chart.Subcategories)),
	}
	for _, t := range chart.Types {
		idx.types[t.ID] = t
	}
	for _, g := range chart.Groups {
		idx.groups[g.ID] = g
	}
	for _, c := range chart.Categories {
		idx.categories[c.ID] = c
	}
	for _, s := range chart.Subcategories {
		idx.subcategories[s.ID] = s
	}
	return idx
}

// resolveChain walks subcategory -> category -> group -> type. A broken
// chain returns false and the entry is silently dropped from reports.
func (idx *chartIndex) resolveChain(subcategoryId int) (*models.AccountType, *models.AccountGroup, *models.AccountCategory, *models.AccountSubcategory, bool) {
	sub, ok := idx.subcategories[subcategoryId]
	if !ok {
		return nil, nil, nil, nil, false
	}
	cat, ok := idx.categories[sub.CategoryId]
	if !ok {
		return nil, nil, nil, nil, false
	}
	group, ok := idx.groups[cat.GroupId]
	if !ok {
		return nil, nil, nil, nil, false
	}
	accType, ok := idx.types[group.TypeId]
	if !ok {
		return nil, nil, nil, nil, false
	}
	return accType, group, cat, sub, true
}

// The revenue/expense split keys off the free-text type name. Kept as a
// substring match on purpose: the stored model has no classification
// column, and type names here follow the DRE convention (Receita .../
// Despesa ...).
func isRevenueTypeName(name string) bool {
	return strings.Contains(strings.ToLower(name), "receita")
}

func isExpenseTypeName(name string) bool {
	return strings.Contains(strings.ToLower(name), "despesa")
}

type tupleKey struct {
	typeId        int
	groupId       int
	categoryId    int
	subcategoryId int
}

// accumulateRows sums entry amounts per (type, group, category,
// subcategory) tuple for entries whose reference date the period accepts.
func accumulateRows(entries []*models.Entry, idx *chartIndex, inPeriod func(time.Time) bool) map[tupleKey]*DRERow {
	rows := make(map[tupleKey]*DRERow)
	for _, entry := range entries {
		if !entry.IsSettled() || !inPeriod(entry.ReferenceDate()) {
			continue
		}
		accType, group, cat, sub, ok := idx.resolveChain(entry.SubcategoryId)
		if !ok {
			continue
		}
		key := tupleKey{accType.ID, group.ID, cat.ID, sub.ID}
		row, exists := rows[key]
		if !exists {
			row = &DRERow{
				TypeId:          accType.ID,
				TypeName:        accType.Name,
				GroupId:         group.ID,
				GroupName:       group.Name,
				CategoryId:      cat.ID,
				CategoryName:    cat.Name,
				SubcategoryId:   sub.ID,
				SubcategoryName: sub.Name,
				Amount:          decimal.Zero,
			}
			rows[key] = row
		}
		row.Amount = row.Amount.Add(entry.Amount())
	}
	return rows
}

var oneHundred = decimal.NewFromInt(100)

// BuildDREReport runs the whole aggregation in memory over
// already-fetched rows: period filter, chain resolution, tuple sums,
// percentage-of-type, prior-year YoY, tree, KPIs and the 12-bucket
// monthly series.
func BuildDREReport(entries []*models.Entry, chart *models.ChartOfAccounts, filter DREFilter) (*DREResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	idx := newChartIndex(chart)

	rowMap := accumulateRows(entries, idx, filter.contains)

	// Prior-year comparison always covers the full preceding calendar
	// year, even when the current period is a date range.
	priorYear := filter.referenceYear() - 1
	priorMap := accumulateRows(entries, idx, func(t time.Time) bool {
		return t.Year() == priorYear
	})

	typeTotals := make(map[int]decimal.Decimal)
	for _, row := range rowMap {
		typeTotals[row.TypeId] = typeTotals[row.TypeId].Add(row.Amount)
	}

	rows := make([]*DRERow, 0, len(rowMap))
	for key, row := range rowMap {
		total := typeTotals[row.TypeId]
		if !total.IsZero() {
			row.PercentOfType = row.Amount.Div(total).Mul(oneHundred)
		}
		if prior, ok := priorMap[key]; ok && !prior.Amount.IsZero() {
			yoy := row.Amount.Sub(prior.Amount).Div(prior.Amount.Abs()).Mul(oneHundred)
			row.YoYPercent = &yoy
		}
		rows = append(rows, row)
	}
	sortRows(rows, typeTotals)

	response := &DREResponse{
		Rows:    rows,
		Tree:    buildTree(rows, typeTotals),
		Kpis:    computeKpis(rows),
		Monthly: buildMonthlySeries(entries, idx, filter.contains),
	}
	return response, nil
}

func sortRows(rows []*DRERow, typeTotals map[int]decimal.Decimal) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TypeId != b.TypeId {
			return typeLess(a.TypeName, typeTotals[a.TypeId], b.TypeName, typeTotals[b.TypeId])
		}
		return a.Amount.GreaterThan(b.Amount)
	})
}

// typeLess orders revenue types first, the rest by descending total.
func typeLess(aName string, aTotal decimal.Decimal, bName string, bTotal decimal.Decimal) bool {
	aRevenue := isRevenueTypeName(aName)
	bRevenue := isRevenueTypeName(bName)
	if aRevenue != bRevenue {
		return aRevenue
	}
	if !aTotal.Equal(bTotal) {
		return aTotal.GreaterThan(bTotal)
	}
	return aName < bName
}

func buildTree(rows []*DRERow, typeTotals map[int]decimal.Decimal) []*DRENode {
	typeNodes := make(map[int]*DRENode)
	groupNodes := make(map[int]*DRENode)
	categoryNodes := make(map[int]*DRENode)
	var order []*DRENode

	for _, row := range rows {
		typeNode, ok := typeNodes[row.TypeId]
		if !ok {
			typeNode = &DRENode{Id: row.TypeId, Name: row.TypeName, Level: "tipo", PercentOfType: oneHundred}
			typeNodes[row.TypeId] = typeNode
			order = append(order, typeNode)
		}
		typeNode.Amount = typeNode.Amount.Add(row.Amount)

		groupNode, ok := groupNodes[row.GroupId]
		if !ok {
			groupNode = &DRENode{Id: row.GroupId, Name: row.GroupName, Level: "grupo"}
			groupNodes[row.GroupId] = groupNode
			typeNode.Children = append(typeNode.Children, groupNode)
		}
		groupNode.Amount = groupNode.Amount.Add(row.Amount)

		categoryNode, ok := categoryNodes[row.CategoryId]
		if !ok {
			categoryNode = &DRENode{Id: row.CategoryId, Name: row.CategoryName, Level: "categoria"}
			categoryNodes[row.CategoryId] = categoryNode
			groupNode.Children = append(groupNode.Children, categoryNode)
		}
		categoryNode.Amount = categoryNode.Amount.Add(row.Amount)

		categoryNode.Children = append(categoryNode.Children, &DRENode{
			Id:            row.SubcategoryId,
			Name:          row.SubcategoryName,
			Level:         "subcategoria",
			Amount:        row.Amount,
			PercentOfType: row.PercentOfType,
			YoYPercent:    row.YoYPercent,
		})
	}

	// Group and category percentages are relative to the ancestor type's
	// total.
	for _, row := range rows {
		total := typeTotals[row.TypeId]
		if total.IsZero() {
			continue
		}
		if node := groupNodes[row.GroupId]; node.PercentOfType.IsZero() {
			node.PercentOfType = node.Amount.Div(total).Mul(oneHundred)
		}
		if node := categoryNodes[row.CategoryId]; node.PercentOfType.IsZero() {
			node.PercentOfType = node.Amount.Div(total).Mul(oneHundred)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return typeLess(order[i].Name, order[i].Amount, order[j].Name, order[j].Amount)
	})
	for _, typeNode := range order {
		sortChildrenByAmount(typeNode)
	}
	return order
}

func sortChildrenByAmount(node *DRENode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		return node.Children[i].Amount.GreaterThan(node.Children[j].Amount)
	})
	for _, child := range node.Children {
		sortChildrenByAmount(child)
	}
}

func computeKpis(rows []*DRERow) DREKpis {
	var kpis DREKpis
	for _, row := range rows {
		if isRevenueTypeName(row.TypeName) {
			kpis.Revenue = kpis.Revenue.Add(row.Amount)
		} else if isExpenseTypeName(row.TypeName) {
			kpis.Expense = kpis.Expense.Add(row.Amount)
		}
	}
	kpis.Result = kpis.Revenue.Sub(kpis.Expense)
	return kpis
}

// buildMonthlySeries re-buckets the period-filtered entries by calendar
// month of their reference date. Always 12 buckets; quiet months stay at
// zero.
func buildMonthlySeries(entries []*models.Entry, idx *chartIndex, inPeriod func(time.Time) bool) []*DREMonthBucket {
	buckets := make([]*DREMonthBucket, 12)
	for i := range buckets {
		buckets[i] = &DREMonthBucket{Month: i + 1}
	}

	for _, entry := range entries {
		if !entry.IsSettled() {
			continue
		}
		refDate := entry.ReferenceDate()
		if !inPeriod(refDate) {
			continue
		}
		accType, _, _, _, ok := idx.resolveChain(entry.SubcategoryId)
		if !ok {
			continue
		}
		bucket := buckets[int(refDate.Month())-1]
		if isRevenueTypeName(accType.Name) {
			bucket.Revenue = bucket.Revenue.Add(entry.Amount())
		} else if isExpenseTypeName(accType.Name) {
			bucket.Expense = bucket.Expense.Add(entry.Amount())
		}
	}
	return buckets
}

// GetDREReport fetches the inputs and runs the aggregation, with an
// optional redis-backed cache in front.
func GetDREReport(ctx context.Context, filter DREFilter) (*DREResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	cacheKey := dreCacheKey(filter)
	if reportCacheEnabled() {
		var cached DREResponse
		if hit, err := cacheGet(cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	entries, err := models.ListSettledEntries(ctx, filter.CompanyId, filter.ProjectId)
	if err != nil {
		return nil, err
	}
	chart, err := models.GetChartOfAccounts(ctx)
	if err != nil {
		return nil, err
	}

	response, err := BuildDREReport(entries, chart, filter)
	if err != nil {
		return nil, err
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, response, reportCacheTTL())
	}
	logSlowReport(ctx, "dre", started, map[string]any{"entries": len(entries)})
	return response, nil
}

func dreCacheKey(filter DREFilter) string {
	start, end := "", ""
	if filter.StartDate != nil {
		start = filter.StartDate.Format("2006-01-02")
	}
	if filter.EndDate != nil {
		end = filter.EndDate.Format("2006-01-02")
	}
	return fmt.Sprintf("report:dre:%d:%s:%s:%d:%d", filter.Year, start, end, filter.CompanyId, filter.ProjectId)
}
