package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chachabrian/hall-booking/internal/database"
	"github.com/chachabrian/hall-booking/internal/gateway"
	"github.com/chachabrian/hall-booking/internal/models"
)

const testSecret = "test_secret"

// testNow is 10:30 UTC, two days before the dates most tests book.
var testNow = time.Date(2025, 5, 30, 10, 30, 0, 0, time.UTC)

// newTestDB returns a migrated in-memory store. The pool is pinned to a single
// connection so concurrent transactions run one at a time.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

type fakeGateway struct {
	mu     sync.Mutex
	orders []gateway.OrderRequest
	err    error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, req)
	return &gateway.Order{ID: fmt.Sprintf("order_%d", len(g.orders)), Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(testSecret, orderID, paymentID, signature)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	gw     *fakeGateway
	events *recorder
	clock  *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, rate float64) *fixture {
	t.Helper()
	f := &fixture{
		db:     newTestDB(t),
		gw:     &fakeGateway{},
		events: &recorder{},
		clock:  &testClock{now: testNow},
	}
	f.svc = NewService(f.db, Options{
		Settings: StaticSettings{HourlyRate: rate, StartHour: 9, EndHour: 23},
		Gateway:  f.gw,
		Events:   f.events,
		Location: time.UTC,
		Now:      f.clock.Now,
		Logger:   zerolog.Nop(),
	})
	return f
}

func (f *fixture) book(t *testing.T, date string, method models.PaymentMethod, hours ...int) *models.Booking {
	t.Helper()
	b, err := f.svc.BookHourly(context.Background(), HourlyRequest{
		Customer:    Customer{CustomerName: "Asha", Mobile: "9876543210", PaymentMethod: method},
		BookingDate: date,
		Hours:       hours,
	})
	require.NoError(t, err)
	return b
}

// pay walks an online booking through order creation and verification.
func (f *fixture) pay(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := f.svc.VerifyPayment(context.Background(), f.checkout(t, id))
	require.NoError(t, err)
	return b
}

// checkout creates a gateway order for id and returns a correctly signed
// verification request for it.
func (f *fixture) checkout(t *testing.T, id uint) VerifyRequest {
	t.Helper()
	po, err := f.svc.CreatePaymentOrder(context.Background(), id)
	require.NoError(t, err)
	paymentID := "pay_" + po.GatewayOrderID
	return VerifyRequest{
		BookingID:        id,
		GatewayOrderID:   po.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        gateway.Sign(testSecret, po.GatewayOrderID, paymentID),
	}
}

// activeOwners counts the active bookings holding each hour of date.
func (f *fixture) activeOwners(t *testing.T, date string) map[int]int64 {
	t.Helper()
	var rows []struct {
		Hour   int
		Owners int64
	}
	require.NoError(t, f.db.Model(&models.Slot{}).
		Select("hall_booking_slots.hour AS hour, COUNT(*) AS owners").
		Joins("JOIN hall_bookings ON hall_bookings.id = hall_booking_slots.booking_id").
		Where("hall_booking_slots.booking_date = ?", date).
		Scopes(activeBookings).
		Group("hall_booking_slots.hour").
		Scan(&rows).Error)
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.Hour] = r.Owners
	}
	return out
}

func (f *fixture) reload(t *testing.T, id uint) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.Preload("Slots").First(&b, id).Error)
	return &b
}
