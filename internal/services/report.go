package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/chachabrian/hall-booking/internal/booking"
)

const (
	reportSheet      = "Bookings"
	XLSXContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportTimeLayout = "2006-01-02 15:04"
)

var reportColumns = []string{
	"ID", "Customer", "Mobile", "Date", "Time", "Occasion",
	"Total", "Advance", "Remaining", "Method", "Payment", "Status", "Created",
}

// BuildBookingsReport renders the admin booking listing as an xlsx workbook.
func BuildBookingsReport(rows []booking.BookingView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}
	if err := writeReportRow(f, 1, toCells(reportColumns)); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
		_ = f.SetCellStyle(reportSheet, "A1", end, style)
	}

	for i, r := range rows {
		cells := []interface{}{
			r.ID, r.CustomerName, r.Mobile, r.BookingDate, r.SlotDisplay, r.Occasion,
			r.TotalAmount, r.AdvanceAmount, r.RemainingAmount,
			string(r.PaymentMethod), string(r.PaymentStatus), string(r.BookingStatus),
			r.CreatedAt.Format(reportTimeLayout),
		}
		if err := writeReportRow(f, i+2, cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportName names an export generated at t.
func ReportName(status string, t time.Time) string {
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("hall-bookings-%s-%s.xlsx", status, t.Format("20060102-150405"))
}

func writeReportRow(f *excelize.File, row int, cells []interface{}) error {
	for col, v := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
