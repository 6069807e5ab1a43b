package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Report"

// writeSheet fills a fresh workbook with a header row and data rows.
func writeSheet(w io.Writer, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, row := range rows {
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// ExportDaily writes the daily summary as an xlsx workbook.
func ExportDaily(w io.Writer, s Summary[DailyRow]) error {
	headers := []string{"Date", "Revenue", "Cost", "Profit", "Profit Rate", "Orders", "Avg Order Value"}
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{
			r.Date.Format(time.DateOnly),
			r.Revenue.InexactFloat64(),
			r.Cost.InexactFloat64(),
			r.Profit.InexactFloat64(),
			r.ProfitRate.InexactFloat64(),
			r.OrderCount,
			r.AvgOrderValue.InexactFloat64(),
		})
	}
	return writeSheet(w, headers, rows)
}

// ExportMonthly writes the monthly summary as an xlsx workbook.
func ExportMonthly(w io.Writer, s Summary[MonthlyRow]) error {
	headers := []string{"Month", "Revenue", "Cost", "Profit", "Profit Rate", "Orders"}
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", r.Year, r.Month),
			r.Revenue.InexactFloat64(),
			r.Cost.InexactFloat64(),
			r.Profit.InexactFloat64(),
			r.ProfitRate.InexactFloat64(),
			r.OrderCount,
		})
	}
	return writeSheet(w, headers, rows)
}

// ExportStores writes the store performance report as an xlsx workbook.
func ExportStores(w io.Writer, s Summary[StoreRow]) error {
	headers := []string{"Store Code", "Store", "Revenue", "Cost", "Profit", "Profit Rate", "Orders", "Revenue Share %"}
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{
			r.StoreCode,
			r.StoreName,
			r.Revenue.InexactFloat64(),
			r.Cost.InexactFloat64(),
			r.Profit.InexactFloat64(),
			r.ProfitRate.InexactFloat64(),
			r.OrderCount,
			r.RevenueShare.InexactFloat64(),
		})
	}
	return writeSheet(w, headers, rows)
}

// ExportBreakdown writes the expense breakdown as an xlsx workbook.
func ExportBreakdown(w io.Writer, s Summary[BucketRow]) error {
	headers := []string{"Cost Bucket", "Amount", "Share %"}
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{r.Bucket, r.Amount.InexactFloat64(), r.Share.InexactFloat64()})
	}
	return writeSheet(w, headers, rows)
}
