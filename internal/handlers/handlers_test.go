package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/database"
	"github.com/chachabrian/hall-booking/internal/gateway"
	"github.com/chachabrian/hall-booking/internal/middleware"
	"github.com/chachabrian/hall-booking/internal/services"
	"github.com/chachabrian/hall-booking/pkg/utils"
)

const (
	testJWTSecret     = "testsecret"
	testGatewaySecret = "gateway_secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct {
	mu sync.Mutex
	n  int
}

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return &gateway.Order{ID: fmt.Sprintf("order_%d", g.n), Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(testGatewaySecret, orderID, paymentID, signature)
}

func (g *stubGateway) KeyID() string { return "rzp_test" }

type testAPI struct {
	router    *gin.Engine
	reportDir string
	adminJWT  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.RunMigrations(db))

	now := time.Date(2025, 5, 30, 10, 30, 0, 0, time.UTC)
	svc := booking.NewService(db, booking.Options{
		Settings: booking.StaticSettings{HourlyRate: 500, StartHour: 9, EndHour: 23},
		Gateway:  &stubGateway{},
		Location: time.UTC,
		Now:      func() time.Time { return now },
		Logger:   zerolog.Nop(),
	})

	dir := filepath.Join(t.TempDir(), "reports")
	store, err := services.NewLocalStorage(dir, "http://hall.test")
	require.NoError(t, err)

	token, err := utils.GenerateToken("1", middleware.RoleAdmin, testJWTSecret, time.Hour)
	require.NoError(t, err)

	return &testAPI{
		router: NewRouter(RouterDeps{
			DB:        db,
			Service:   svc,
			Hub:       services.NewHub(zerolog.Nop()),
			Reports:   store,
			ReportDir: dir,
			JWTSecret: testJWTSecret,
			Logger:    zerolog.Nop(),
		}),
		reportDir: dir,
		adminJWT:  token,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, admin bool) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+a.adminJWT)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func hourlyBody(method string, hours ...int) map[string]interface{} {
	return map[string]interface{}{
		"customerName":  "Asha",
		"mobile":        "9876543210",
		"bookingDate":   "2025-06-01",
		"selectedSlots": hours,
		"paymentMethod": method,
	}
}

func TestCheckHourlyAvailability(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(t, http.MethodPost, "/api/hall-booking/check-hourly-availability", map[string]string{"bookingDate": "2025-06-01"}, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 500.0, body["pricePerHour"])
	assert.Len(t, body["slots"], 14)

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/check-hourly-availability", map[string]string{"bookingDate": "June 1"}, false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/check-hourly-availability", map[string]string{}, false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBookHourlyStatusCodes(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("ONLINE", 10, 11), false)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 1000.0, body["totalAmount"])
	assert.Equal(t, 500.0, body["advanceAmount"])
	assert.Equal(t, 500.0, body["remainingAmount"])
	assert.Equal(t, "PENDING", body["bookingStatus"])

	code, body = api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("CASH", 14, 15), false)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "CONFIRMED", body["bookingStatus"])

	code, body = api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("CASH", 15, 16), false)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []interface{}{"15:00"}, body["conflictingSlots"])

	code, body = api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("CASH", 10, 12), false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "contiguous")

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", map[string]string{"bookingDate": "2025-06-01"}, false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBookFixedSlot(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(t, http.MethodPost, "/api/hall-booking/book", map[string]string{
		"customerName": "Meera",
		"mobile":       "1",
		"bookingDate":  "2025-06-01",
		"timeSlot":     "morning",
	}, false)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 3500.0, body["totalAmount"])

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/book", map[string]string{
		"customerName": "Meera",
		"mobile":       "1",
		"bookingDate":  "2025-06-01",
		"timeSlot":     "night",
	}, false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPaymentFlow(t *testing.T) {
	api := newTestAPI(t)
	_, booked := api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("ONLINE", 10, 11), false)
	id := booked["bookingId"]

	code, _ := api.do(t, http.MethodPost, "/api/hall-booking/payment/create", map[string]interface{}{"bookingId": 999}, false)
	assert.Equal(t, http.StatusNotFound, code)

	code, order := api.do(t, http.MethodPost, "/api/hall-booking/payment/create", map[string]interface{}{"bookingId": id}, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 50000.0, order["amount"])
	assert.Equal(t, "INR", order["currency"])
	assert.Equal(t, "rzp_test", order["keyId"])
	orderID := order["gatewayOrderId"].(string)

	verify := map[string]interface{}{
		"bookingId":        id,
		"gatewayOrderId":   orderID,
		"gatewayPaymentId": "pay_1",
		"signature":        strings.ToUpper(gateway.Sign(testGatewaySecret, orderID, "pay_1")),
	}
	code, body := api.do(t, http.MethodPost, "/api/hall-booking/payment/verify", verify, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	verify["signature"] = gateway.Sign(testGatewaySecret, orderID, "pay_1")
	code, body = api.do(t, http.MethodPost, "/api/hall-booking/payment/verify", verify, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ADVANCE_PAID", body["paymentStatus"])

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/payment/verify", verify, false)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(t, http.MethodPost, "/api/hall-booking/payment/create", map[string]interface{}{"bookingId": id}, false)
	assert.Equal(t, http.StatusConflict, code)
}

func TestVerifyPaymentAfterHoursTaken(t *testing.T) {
	api := newTestAPI(t)
	_, booked := api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("ONLINE", 10, 11), false)
	id := booked["bookingId"]
	_, order := api.do(t, http.MethodPost, "/api/hall-booking/payment/create", map[string]interface{}{"bookingId": id}, false)
	orderID := order["gatewayOrderId"].(string)

	code, _ := api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("CASH", 11), false)
	require.Equal(t, http.StatusCreated, code)

	code, body := api.do(t, http.MethodPost, "/api/hall-booking/payment/verify", map[string]interface{}{
		"bookingId":        id,
		"gatewayOrderId":   orderID,
		"gatewayPaymentId": "pay_1",
		"signature":        gateway.Sign(testGatewaySecret, orderID, "pay_1"),
	}, false)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []interface{}{11.0}, body["conflictingHours"])
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, booked := api.do(t, http.MethodPost, "/api/hall-booking/book-hourly", hourlyBody("CASH", 10, 11), false)
	id := int(booked["bookingId"].(float64))

	code, _ := api.do(t, http.MethodGet, "/api/admin/hall-bookings", nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := api.do(t, http.MethodGet, "/api/admin/hall-bookings", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])
	first := body["bookings"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "10:00 - 12:00", first["slotDisplay"])

	code, _ = api.do(t, http.MethodGet, "/api/admin/hall-bookings?status=bogus", nil, true)
	assert.Equal(t, http.StatusBadRequest, code)

	statusPath := fmt.Sprintf("/api/admin/hall-booking-status/%d", id)
	code, _ = api.do(t, http.MethodPatch, statusPath, map[string]string{"bookingStatus": "PENDING"}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(t, http.MethodPatch, "/api/admin/hall-booking-status/999", map[string]string{"bookingStatus": "COMPLETED"}, true)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = api.do(t, http.MethodPatch, "/api/admin/hall-booking-status/abc", map[string]string{"bookingStatus": "COMPLETED"}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = api.do(t, http.MethodPatch, statusPath, map[string]string{"bookingStatus": "completed"}, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "COMPLETED", body["bookingStatus"])

	code, body = api.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/hall-booking-remaining-payment/%d", id), nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAID", body["paymentStatus"])
	assert.Equal(t, 0.0, body["remainingAmount"])

	code, body = api.do(t, http.MethodGet, "/api/admin/hall-bookings/export?status=completed", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])
	url := body["url"].(string)
	assert.True(t, strings.HasPrefix(url, "http://hall.test/reports/hall-bookings-COMPLETED-"))
	_, err := os.Stat(filepath.Join(api.reportDir, strings.TrimPrefix(url, "http://hall.test/reports/")))
	assert.NoError(t, err)

	code, _ = api.do(t, http.MethodPost, "/api/admin/settings/refresh", nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body = api.do(t, http.MethodPost, "/api/admin/settings/refresh", nil, true)
	require.Equal(t, http.StatusOK, code)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, 500.0, settings["hourlyRate"])
	assert.Equal(t, 9.0, settings["startHour"])
}

func TestHealthRoutes(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = api.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, _ = api.do(t, http.MethodGet, "/api/hall-booking/ws?date=soon", nil, false)
	assert.Equal(t, http.StatusBadRequest, code)
}
