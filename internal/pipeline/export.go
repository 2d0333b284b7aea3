package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"storefront/internal"
	"storefront/internal/util"
)

func ExportLineItemsToXLSX(rows []internal.LineItemExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"order_id", "order_status", "line_no", "product_name", "product_id",
		"image_url", "price", "quantity", "line_total", "size", "color", "legacy_ref",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.OrderID)
		set(2, row.OrderStatus)
		set(3, row.LineNo)
		set(4, row.ProductName)
		set(5, util.DerefString(row.ProductID))
		set(6, row.ImageURL)
		set(7, row.Price)
		set(8, row.Quantity)
		set(9, row.LineTotal)
		set(10, row.Size)
		set(11, row.Color)
		set(12, row.LegacyRef)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
