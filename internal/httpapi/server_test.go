package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/parking/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/parking/pkg/parking"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(test *testing.T) (*gin.Engine, *parking.Service, Config) {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	service, err := parking.NewService(gormstore.New(db), time.Now)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	cfg := Config{SessionSigningKey: "test-signing-key"}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("config: %v", err)
	}
	return NewRouter(cfg, service, zap.NewNop()), service, cfg
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(test *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	test.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			test.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var parsed envelope
	if len(recorder.Body.Bytes()) > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &parsed); err != nil {
			test.Fatalf("unmarshal response %q: %v", recorder.Body.String(), err)
		}
	}
	return recorder, parsed
}

func registerUser(test *testing.T, router *gin.Engine, loginID string) int64 {
	test.Helper()
	recorder, parsed := doJSON(test, router, http.MethodPost, "/api/register", map[string]interface{}{
		"login_id": loginID,
		"password": "hunter2",
		"email":    loginID + "@example.com",
	}, nil)
	if recorder.Code != http.StatusCreated {
		test.Fatalf("register: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var data struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse register data: %v", err)
	}
	return data.UserID
}

func TestHealthz(test *testing.T) {
	router, _, _ := newTestRouter(test)
	recorder, _ := doJSON(test, router, http.MethodGet, "/healthz", nil, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestRegisterAndLogin(test *testing.T) {
	router, _, _ := newTestRouter(test)
	userID := registerUser(test, router, "driver")
	if userID == 0 {
		test.Fatalf("expected assigned user id")
	}

	recorder, parsed := doJSON(test, router, http.MethodPost, "/api/login", map[string]string{
		"login_id": "driver",
		"password": "hunter2",
	}, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("login: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var data struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse login data: %v", err)
	}
	if data.Token == "" || data.UserID != userID {
		test.Fatalf("unexpected login payload: %+v", data)
	}

	recorder, parsed = doJSON(test, router, http.MethodPost, "/api/login", map[string]string{
		"login_id": "driver",
		"password": "wrong",
	}, nil)
	if recorder.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401 on bad password, got %d", recorder.Code)
	}
	if parsed.Error == nil || parsed.Error.Code != "unauthorized" {
		test.Fatalf("expected unauthorized error envelope, got %s", recorder.Body.String())
	}
}

func TestRegisterDuplicateLogin(test *testing.T) {
	router, _, _ := newTestRouter(test)
	registerUser(test, router, "dup")
	recorder, parsed := doJSON(test, router, http.MethodPost, "/api/register", map[string]string{
		"login_id": "dup",
		"password": "hunter2",
		"email":    "dup@example.com",
	}, nil)
	if recorder.Code != http.StatusConflict {
		test.Fatalf("expected 409, got %d", recorder.Code)
	}
	if parsed.Error == nil || parsed.Error.Code != "duplicate" {
		test.Fatalf("expected duplicate error code, got %s", recorder.Body.String())
	}
}

func TestReserveFlowOverHTTP(test *testing.T) {
	router, service, _ := newTestRouter(test)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	slot, err := service.AddSlot(ctx, parking.NewSlot{
		Number: "A-101", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 5000,
	})
	if err != nil {
		test.Fatalf("add slot: %v", err)
	}
	userID := registerUser(test, router, "driver-res")

	recorder, _ := doJSON(test, router, http.MethodPost, "/api/add-balance", map[string]interface{}{
		"user_id":      userID,
		"amount_cents": 30000,
	}, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("add balance: status %d body %s", recorder.Code, recorder.Body.String())
	}

	recorder, parsed := doJSON(test, router, http.MethodPost, "/api/reserve", map[string]interface{}{
		"user_id":        userID,
		"slot_id":        slot.SlotID,
		"duration_hours": 2,
	}, nil)
	if recorder.Code != http.StatusCreated {
		test.Fatalf("reserve: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var data struct {
		ReservationID int64 `json:"reservation_id"`
		TotalCents    int64 `json:"total_cents"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse reserve data: %v", err)
	}
	if data.TotalCents != 10000 {
		test.Fatalf("expected total 10000, got %d", data.TotalCents)
	}

	recorder, _ = doJSON(test, router, http.MethodPost, "/api/end-reservation", map[string]interface{}{
		"reservation_id": data.ReservationID,
	}, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("end reservation: status %d body %s", recorder.Code, recorder.Body.String())
	}
}

func TestReserveErrorMapping(test *testing.T) {
	router, service, _ := newTestRouter(test)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	slot, err := service.AddSlot(ctx, parking.NewSlot{
		Number: "A-101", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 5000,
	})
	if err != nil {
		test.Fatalf("add slot: %v", err)
	}
	userID := registerUser(test, router, "driver-poor")

	recorder, parsed := doJSON(test, router, http.MethodPost, "/api/reserve", map[string]interface{}{
		"user_id":        userID,
		"slot_id":        slot.SlotID,
		"duration_hours": 9,
	}, nil)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400 for bad duration, got %d", recorder.Code)
	}
	if parsed.Error == nil || parsed.Error.Code != "invalid_duration" {
		test.Fatalf("expected invalid_duration, got %s", recorder.Body.String())
	}

	recorder, parsed = doJSON(test, router, http.MethodPost, "/api/reserve", map[string]interface{}{
		"user_id":        userID,
		"slot_id":        slot.SlotID,
		"duration_hours": 4,
	}, nil)
	if recorder.Code != http.StatusConflict {
		test.Fatalf("expected 409 for insufficient balance, got %d", recorder.Code)
	}
	if parsed.Error == nil || parsed.Error.Code != "insufficient_balance" {
		test.Fatalf("expected insufficient_balance, got %s", recorder.Body.String())
	}

	recorder, parsed = doJSON(test, router, http.MethodPost, "/api/reserve", map[string]interface{}{
		"user_id":        userID,
		"slot_id":        int64(404),
		"duration_hours": 1,
	}, nil)
	if recorder.Code != http.StatusConflict {
		test.Fatalf("expected 409 for unknown slot, got %d", recorder.Code)
	}
	if parsed.Error == nil || parsed.Error.Code != "slot_unavailable" {
		test.Fatalf("expected slot_unavailable, got %s", recorder.Body.String())
	}
}

func TestSlotsFilterQuery(test *testing.T) {
	router, service, _ := newTestRouter(test)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	for index, input := range []parking.NewSlot{
		{Number: "A-101", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 500},
		{Number: "B-201", Floor: 2, Zone: "Zone B", Type: "vip", HourlyPriceCents: 1500},
	} {
		if _, err := service.AddSlot(ctx, input); err != nil {
			test.Fatalf("add slot %d: %v", index, err)
		}
	}

	recorder, parsed := doJSON(test, router, http.MethodGet, "/api/slots?floor=1&available=true", nil, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("slots: status %d", recorder.Code)
	}
	var data struct {
		Slots []struct {
			Number string `json:"number"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse slots: %v", err)
	}
	if len(data.Slots) != 1 || data.Slots[0].Number != "A-101" {
		test.Fatalf("unexpected filtered slots: %+v", data.Slots)
	}

	recorder, _ = doJSON(test, router, http.MethodGet, "/api/slots?floor=abc", nil, nil)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400 for bad floor, got %d", recorder.Code)
	}
}

func TestUserProfileCurrencyDisplay(test *testing.T) {
	router, _, _ := newTestRouter(test)
	userID := registerUser(test, router, "driver-inr")
	recorder, _ := doJSON(test, router, http.MethodPost, "/api/add-balance", map[string]interface{}{
		"user_id":      userID,
		"amount_cents": 10000,
	}, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("add balance: %d", recorder.Code)
	}

	recorder, parsed := doJSON(test, router, http.MethodGet, fmt.Sprintf("/api/user/%d?currency=INR", userID), nil, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("user profile: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var data struct {
		Balances struct {
			BalanceUSD     float64 `json:"balance_usd"`
			BalanceINR     float64 `json:"balance_inr"`
			DisplayBalance float64 `json:"display_balance"`
			Currency       string  `json:"currency"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse profile: %v", err)
	}
	if data.Balances.BalanceUSD != 100 || data.Balances.BalanceINR != 8300 {
		test.Fatalf("unexpected balances: %+v", data.Balances)
	}
	if data.Balances.Currency != "INR" || data.Balances.DisplayBalance != 8300 {
		test.Fatalf("expected INR display, got %+v", data.Balances)
	}

	recorder, _ = doJSON(test, router, http.MethodGet, fmt.Sprintf("/api/user/%d?currency=EUR", userID), nil, nil)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400 for unsupported currency, got %d", recorder.Code)
	}
}

func TestAdminRoutesRequireSession(test *testing.T) {
	router, _, cfg := newTestRouter(test)
	userID := registerUser(test, router, "admin-user")

	recorder, _ := doJSON(test, router, http.MethodGet, "/api/admin/transactions", nil, nil)
	if recorder.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	token, err := issueSessionToken(cfg, userID, time.Now())
	if err != nil {
		test.Fatalf("issue token: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	recorder, _ = doJSON(test, router, http.MethodGet, "/api/admin/transactions", nil, headers)
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200 with token, got %d body %s", recorder.Code, recorder.Body.String())
	}

	recorder, _ = doJSON(test, router, http.MethodPost, "/api/admin/slots", map[string]interface{}{
		"number": "Z-901", "floor": 9, "zone": "Zone Z", "type": "electric", "hourly_price_cents": 800,
	}, headers)
	if recorder.Code != http.StatusCreated {
		test.Fatalf("expected 201 adding slot, got %d body %s", recorder.Code, recorder.Body.String())
	}

	recorder, _ = doJSON(test, router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", userID), nil, headers)
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200 deleting user, got %d body %s", recorder.Code, recorder.Body.String())
	}
}

func TestExpiredReservationSweptBeforeRead(test *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	service, err := parking.NewService(gormstore.New(db), time.Now)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	cfg := Config{SessionSigningKey: "test-signing-key"}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("config: %v", err)
	}
	router := NewRouter(cfg, service, zap.NewNop())

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	slot, err := service.AddSlot(ctx, parking.NewSlot{
		Number: "A-101", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 100,
	})
	if err != nil {
		test.Fatalf("add slot: %v", err)
	}
	userID := registerUser(test, router, "sweeper")
	if _, err := service.CreditWallet(ctx, userID, 10000); err != nil {
		test.Fatalf("credit: %v", err)
	}
	if _, err := service.CreateReservation(ctx, userID, slot.SlotID, 1); err != nil {
		test.Fatalf("reserve: %v", err)
	}
	// Backdate the reservation window so the next request sweeps it.
	past := time.Now().Add(-2 * time.Hour)
	if err := db.Exec("update reservations set end_time = ?", past).Error; err != nil {
		test.Fatalf("backdate: %v", err)
	}

	recorder, parsed := doJSON(test, router, http.MethodGet, "/api/availability", nil, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("availability: status %d", recorder.Code)
	}
	var data struct {
		AvailableSlots int `json:"AvailableSlots"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		test.Fatalf("parse availability: %v", err)
	}
	if data.AvailableSlots != 1 {
		test.Fatalf("expected expired slot released by sweep, got %+v", data)
	}
}
