package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/models"
)

func TestBuildBookingsReport(t *testing.T) {
	created := time.Date(2025, 5, 30, 10, 30, 0, 0, time.UTC)
	rows := []booking.BookingView{
		{
			Booking: models.Booking{
				ID: 3, CustomerName: "Asha", Mobile: "9876543210", BookingDate: "2025-06-01",
				TotalAmount: 1000, AdvanceAmount: 500, RemainingAmount: 500,
				PaymentMethod: models.PaymentMethodOnline, PaymentStatus: models.PaymentStatusAdvancePaid,
				BookingStatus: models.BookingStatusConfirmed, CreatedAt: created,
			},
			SlotDisplay: "10:00 - 12:00",
		},
		{
			Booking: models.Booking{
				ID: 2, CustomerName: "Meera", Mobile: "1", BookingDate: "2025-06-02",
				PaymentMethod: models.PaymentMethodCash, PaymentStatus: models.PaymentStatusPending,
				BookingStatus: models.BookingStatusConfirmed, CreatedAt: created,
			},
			SlotDisplay: "morning",
		},
	}

	data, err := BuildBookingsReport(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Customer", got[0][1])
	assert.Equal(t, "Asha", got[1][1])
	assert.Equal(t, "10:00 - 12:00", got[1][4])
	assert.Equal(t, "ADVANCE_PAID", got[1][10])
	assert.Equal(t, "2025-05-30 10:30", got[1][12])
	assert.Equal(t, "morning", got[2][4])
}

func TestReportName(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "hall-bookings-all-20250601-080509.xlsx", ReportName("", at))
	assert.Equal(t, "hall-bookings-CONFIRMED-20250601-080509.xlsx", ReportName("CONFIRMED", at))
}

func TestLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	store, err := NewLocalStorage(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "../report.xlsx", []byte("xlsx"), XLSXContentType)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/reports/report.xlsx", url)

	data, err := os.ReadFile(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
}
