package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/koiakoia/amazon-product-scraper/internal/models"
)

const sheetName = "Products"

// WriteXLSX writes the batch to a workbook with a single Products sheet,
// using the same flattening as the CSV writer.
func WriteXLSX(products []*models.Product, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeSheetRow(f, 1, Header); err != nil {
		return err
	}

	for i, product := range products {
		if err := writeSheetRow(f, i+2, Row(product)); err != nil {
			return err
		}
	}

	return f.SaveAs(filename)
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	return f.SetSheetRow(sheetName, cell, &cells)
}

// ReadXLSX reads back the Products sheet as raw rows, header included.
func ReadXLSX(filename string) ([][]string, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(sheetName)
}
