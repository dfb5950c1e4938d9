package end_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	endBooking "github.com/m04kA/SMC-ParkingService/internal/usecase/end_booking"
)

const (
	msgInvalidBookingID  = "некорректный ID бронирования"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgNotFound          = "бронирование не найдено"
	msgWrongStatus       = "бронирование не находится в статусе парковки"
	msgForbidden         = "доступ запрещен"
	msgInsufficientFunds = "недостаточно средств на кошельке для оплаты"
)

type Handler struct {
	useCase EndBookingUseCase
	logger  Logger
}

func NewHandler(useCase EndBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/end
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/end - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/end - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &endBooking.Request{
		BookingID: bookingID,
		UserID:    userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, endBooking.ErrInsufficientFunds):
			h.logger.Warn("PATCH /bookings/{id}/end - Insufficient funds: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgInsufficientFunds)

		case errors.Is(err, endBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/end - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, endBooking.ErrWrongStatus):
			h.logger.Warn("PATCH /bookings/{id}/end - Wrong status: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgWrongStatus)

		case errors.Is(err, endBooking.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/end - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, endBooking.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("PATCH /bookings/{id}/end - Failed: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/end - Booking completed: booking_id=%d, user_id=%d, total=%s",
		bookingID, userID, result.GrandTotal.StringFixed(2))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
