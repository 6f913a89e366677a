package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var dreExportHeadings = []string{"Tipo", "Grupo", "Categoria", "Subcategoria", "Valor", "% Tipo", "YoY %"}

// BuildDREWorkbook renders the flat row view into a single-sheet
// workbook. Amounts go out as float cells so spreadsheet formulas work
// on them.
func BuildDREWorkbook(response *DREResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "DRE"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Add headers
	col := 'A'
	for _, h := range dreExportHeadings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	// Add data
	for i, row := range response.Rows {
		rowNo := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+rowNo, row.TypeName)
		f.SetCellValue(sheetName, "B"+rowNo, row.GroupName)
		f.SetCellValue(sheetName, "C"+rowNo, row.CategoryName)
		f.SetCellValue(sheetName, "D"+rowNo, row.SubcategoryName)
		f.SetCellValue(sheetName, "E"+rowNo, row.Amount.InexactFloat64())
		f.SetCellValue(sheetName, "F"+rowNo, row.PercentOfType.InexactFloat64())
		if row.YoYPercent != nil {
			f.SetCellValue(sheetName, "G"+rowNo, row.YoYPercent.InexactFloat64())
		}
	}

	// KPI footer two rows below the table.
	footer := len(response.Rows) + 3
	f.SetCellValue(sheetName, "A"+fmt.Sprint(footer), "Total Receitas")
	f.SetCellValue(sheetName, "E"+fmt.Sprint(footer), response.Kpis.Revenue.InexactFloat64())
	f.SetCellValue(sheetName, "A"+fmt.Sprint(footer+1), "Total Despesas")
	f.SetCellValue(sheetName, "E"+fmt.Sprint(footer+1), response.Kpis.Expense.InexactFloat64())
	f.SetCellValue(sheetName, "A"+fmt.Sprint(footer+2), "Resultado")
	f.SetCellValue(sheetName, "E"+fmt.Sprint(footer+2), response.Kpis.Result.InexactFloat64())

	return f, nil
}
