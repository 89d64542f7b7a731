package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/parking/internal/display"
	"github.com/MarkoPoloResearchLab/parking/pkg/parking"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run boots the HTTP facade and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config, service *parking.Service, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	router := NewRouter(cfg, service, logger)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("parking api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(cfg Config, service *parking.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
	}

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	// Expired reservations are released lazily, ahead of every externally
	// visible read or write.
	api.Use(handler.sweepExpired)

	api.POST("/register", handler.handleRegister)
	api.POST("/login", handler.handleLogin)
	api.GET("/slots", handler.handleSlots)
	api.GET("/availability", handler.handleAvailability)
	api.POST("/reserve", handler.handleReserve)
	api.POST("/end-reservation", handler.handleEndReservation)
	api.POST("/add-balance", handler.handleAddBalance)
	api.GET("/users", handler.handleUsers)
	api.GET("/user/:id", handler.handleUser)
	api.GET("/analytics", handler.handleAnalytics)

	admin := api.Group("/admin")
	admin.Use(sessionMiddleware(cfg))
	admin.GET("/transactions", handler.handleTransactions)
	admin.POST("/slots", handler.handleAddSlot)
	admin.DELETE("/users/:id", handler.handleDeleteUser)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *parking.Service
	cfg     Config
}

func (handler *httpHandler) sweepExpired(ctx *gin.Context) {
	released, err := handler.service.ReleaseExpiredReservations(ctx.Request.Context())
	if err != nil {
		handler.logger.Warn("expiry sweep failed", zap.Error(err))
	} else if released > 0 {
		handler.logger.Info("released expired reservations", zap.Int("count", released))
	}
	ctx.Next()
}

type registerRequest struct {
	LoginID       string `json:"login_id"`
	Password      string `json:"password"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number"`
}

func (handler *httpHandler) handleRegister(ctx *gin.Context) {
	var request registerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "expected JSON body"))
		return
	}
	if request.Password == "" {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "password is required"))
		return
	}
	credentialHash, err := hashCredential(request.Password)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	account, err := handler.service.RegisterAccount(ctx.Request.Context(), parking.NewAccount{
		LoginID:        request.LoginID,
		DisplayName:    request.DisplayName,
		Email:          request.Email,
		Phone:          request.Phone,
		VehicleNumber:  request.VehicleNumber,
		CredentialHash: credentialHash,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, successEnvelope(gin.H{"user_id": account.UserID}, "user registered successfully"))
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "expected JSON body"))
		return
	}
	account, err := handler.service.AccountByLogin(ctx.Request.Context(), request.LoginID)
	if err != nil || !checkCredential(account.CredentialHash, request.Password) {
		ctx.JSON(http.StatusUnauthorized, errorEnvelope("unauthorized", "invalid credentials"))
		return
	}
	token, err := issueSessionToken(handler.cfg, account.UserID, time.Now())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"token": token, "user_id": account.UserID}, "login successful"))
}

func (handler *httpHandler) handleSlots(ctx *gin.Context) {
	filter := parking.SlotFilter{Zone: ctx.Query("zone")}
	if raw := ctx.Query("floor"); raw != "" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "floor must be an integer"))
			return
		}
		filter.Floor = &floor
	}
	if raw := ctx.Query("type"); raw != "" {
		slotType, err := parking.ParseSlotType(raw)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		filter.Type = &slotType
	}
	if raw := ctx.Query("max_price_cents"); raw != "" {
		maxPrice, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "max_price_cents must be an integer"))
			return
		}
		price := parking.AmountCents(maxPrice)
		filter.MaxPriceCents = &price
	}
	filter.OnlyAvailable = ctx.Query("available") == "true"

	slots, err := handler.service.SearchSlots(ctx.Request.Context(), filter)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		payload = append(payload, newSlotPayload(slot))
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"slots": payload}, "slots fetched successfully"))
}

func (handler *httpHandler) handleAvailability(ctx *gin.Context) {
	summary, err := handler.service.AvailabilitySummary(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(summary, "availability summary fetched successfully"))
}

type reserveRequest struct {
	UserID        int64 `json:"user_id"`
	SlotID        int64 `json:"slot_id"`
	DurationHours int   `json:"duration_hours"`
}

func (handler *httpHandler) handleReserve(ctx *gin.Context) {
	var request reserveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "expected JSON body"))
		return
	}
	if request.UserID == 0 || request.SlotID == 0 {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "user_id and slot_id are required"))
		return
	}
	reservation, err := handler.service.CreateReservation(ctx.Request.Context(), request.UserID, request.SlotID, request.DurationHours)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, successEnvelope(gin.H{
		"reservation_id": reservation.ReservationID,
		"total_cents":    reservation.TotalCents.Int64(),
		"start_time":     reservation.StartTime,
		"end_time":       reservation.EndTime,
	}, "reservation created successfully"))
}

type endReservationRequest struct {
	ReservationID int64 `json:"reservation_id"`
}

func (handler *httpHandler) handleEndReservation(ctx *gin.Context) {
	var request endReservationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil || request.ReservationID == 0 {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "reservation_id is required"))
		return
	}
	if err := handler.service.EndReservation(ctx.Request.Context(), request.ReservationID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"reservation_id": request.ReservationID}, "reservation ended successfully"))
}

type addBalanceRequest struct {
	UserID      int64 `json:"user_id"`
	AmountCents int64 `json:"amount_cents"`
}

func (handler *httpHandler) handleAddBalance(ctx *gin.Context) {
	var request addBalanceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil || request.UserID == 0 {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "user_id and amount_cents are required"))
		return
	}
	balance, err := handler.service.CreditWallet(ctx.Request.Context(), request.UserID, parking.AmountCents(request.AmountCents))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"balance_cents": balance.Int64()}, "balance added successfully"))
}

func (handler *httpHandler) handleUsers(ctx *gin.Context) {
	accounts, err := handler.service.Accounts(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]userPayload, 0, len(accounts))
	for _, account := range accounts {
		payload = append(payload, newUserPayload(account))
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"users": payload}, "users fetched successfully"))
}

func (handler *httpHandler) handleUser(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "user id must be an integer"))
		return
	}
	account, err := handler.service.Account(ctx.Request.Context(), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	currency := ctx.DefaultQuery("currency", display.CurrencyUSD)
	if !display.ValidCurrency(currency) {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "currency must be USD or INR"))
		return
	}
	reservations, err := handler.service.UserReservations(ctx.Request.Context(), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	reservationPayloads := make([]reservationPayload, 0, len(reservations))
	for _, reservation := range reservations {
		reservationPayloads = append(reservationPayloads, newReservationPayload(reservation))
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{
		"user":         newUserPayload(account),
		"balances":     display.Convert(account.BalanceCents.Int64(), currency),
		"reservations": reservationPayloads,
	}, "user profile fetched successfully"))
}

func (handler *httpHandler) handleAnalytics(ctx *gin.Context) {
	forecast, err := handler.service.PredictPeakDemand(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	revenue, err := handler.service.RevenueReport(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{
		"predictions": forecast,
		"revenue":     revenue,
	}, "analytics generated successfully"))
}

func (handler *httpHandler) handleTransactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	entries, err := handler.service.Transactions(ctx.Request.Context(), limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"transactions": entries}, "transactions fetched successfully"))
}

type addSlotRequest struct {
	Number           string `json:"number"`
	Floor            int    `json:"floor"`
	Zone             string `json:"zone"`
	Type             string `json:"type"`
	HourlyPriceCents int64  `json:"hourly_price_cents"`
}

func (handler *httpHandler) handleAddSlot(ctx *gin.Context) {
	var request addSlotRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "expected JSON body"))
		return
	}
	slot, err := handler.service.AddSlot(ctx.Request.Context(), parking.NewSlot{
		Number:           request.Number,
		Floor:            request.Floor,
		Zone:             request.Zone,
		Type:             request.Type,
		HourlyPriceCents: parking.AmountCents(request.HourlyPriceCents),
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, successEnvelope(gin.H{"slot": newSlotPayload(slot)}, "slot added successfully"))
}

func (handler *httpHandler) handleDeleteUser(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorEnvelope("invalid_payload", "user id must be an integer"))
		return
	}
	if err := handler.service.DeleteAccount(ctx.Request.Context(), userID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, successEnvelope(gin.H{"user_id": userID}, "user deleted successfully"))
}

// respondError maps a domain failure kind onto an HTTP status. Anything
// unclassified has already rolled back and surfaces as a generic internal
// error.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	kind := parking.KindOf(err)
	status := http.StatusInternalServerError
	message := err.Error()
	switch kind {
	case parking.FailureInvalidDuration, parking.FailureInvalidAmount, parking.FailureInvalidInput:
		status = http.StatusBadRequest
	case parking.FailureDuplicateActive, parking.FailureDuplicateDaily, parking.FailureSlotUnavailable,
		parking.FailureInsufficientBalance, parking.FailureConcurrentConflict, parking.FailureDuplicate:
		status = http.StatusConflict
	case parking.FailureNotFound:
		status = http.StatusNotFound
	case parking.FailureInternal:
		handler.logger.Error("internal error", zap.Error(err))
		message = "an internal error occurred"
	}
	ctx.JSON(status, errorEnvelope(string(kind), message))
}

// Response envelopes mirror the shape the web UI consumes.
func successEnvelope(data interface{}, message string) gin.H {
	return gin.H{
		"success": true,
		"data":    data,
		"message": message,
	}
}

func errorEnvelope(code string, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

type slotPayload struct {
	SlotID           int64  `json:"id"`
	Number           string `json:"number"`
	Floor            int    `json:"floor"`
	Zone             string `json:"zone"`
	Type             string `json:"type"`
	Available        bool   `json:"available"`
	HourlyPriceCents int64  `json:"hourly_price_cents"`
}

func newSlotPayload(slot parking.Slot) slotPayload {
	return slotPayload{
		SlotID:           slot.SlotID,
		Number:           slot.Number,
		Floor:            slot.Floor,
		Zone:             slot.Zone,
		Type:             slot.Type.String(),
		Available:        slot.Available,
		HourlyPriceCents: slot.HourlyPriceCents.Int64(),
	}
}

type userPayload struct {
	UserID        int64  `json:"user_id"`
	LoginID       string `json:"login_id"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number"`
	BalanceCents  int64  `json:"balance_cents"`
}

func newUserPayload(account parking.Account) userPayload {
	return userPayload{
		UserID:        account.UserID,
		LoginID:       account.LoginID,
		DisplayName:   account.DisplayName,
		Email:         account.Email,
		Phone:         account.Phone,
		VehicleNumber: account.VehicleNumber,
		BalanceCents:  account.BalanceCents.Int64(),
	}
}

type reservationPayload struct {
	ReservationID int64     `json:"reservation_id"`
	SlotNumber    string    `json:"slot_number"`
	Floor         int       `json:"floor"`
	Zone          string    `json:"zone"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours int       `json:"duration_hours"`
	TotalCents    int64     `json:"total_cents"`
	Status        string    `json:"status"`
}

func newReservationPayload(reservation parking.UserReservation) reservationPayload {
	return reservationPayload{
		ReservationID: reservation.ReservationID,
		SlotNumber:    reservation.SlotNumber,
		Floor:         reservation.Floor,
		Zone:          reservation.Zone,
		StartTime:     reservation.StartTime,
		EndTime:       reservation.EndTime,
		DurationHours: reservation.DurationHours,
		TotalCents:    reservation.TotalCents.Int64(),
		Status:        reservation.Status.String(),
	}
}
