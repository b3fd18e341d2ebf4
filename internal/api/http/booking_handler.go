package http

import (
	"net/http"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
}

func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// CreateBooking books for the caller. Any customer_id in the body is ignored.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.CustomerID = caller(r).UserID
	b, err := h.bookingSvc.CreateBooking(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) CreateBookingOnBehalf(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := h.bookingSvc.CreateBookingOnBehalf(r.Context(), caller(r).UserID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c := caller(r)
	b, err := h.bookingSvc.GetBooking(r.Context(), c.UserID, c.IsWorker(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListBookings lists the caller's bookings, optionally filtered by ?status=a,b.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.BookingStatus
	for _, s := range queryList(r, "status") {
		statuses = append(statuses, domain.BookingStatus(s))
	}
	bookings, err := h.bookingSvc.ListCustomerBookings(r.Context(), caller(r).UserID, statuses)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

type setTimeSlotBody struct {
	DropoffAt time.Time `json:"dropoff_at"`
}

func (h *BookingHandler) SetTimeSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var body setTimeSlotBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if body.DropoffAt.IsZero() {
		respondError(w, r, domain.ValidationError("dropoff_at is required"))
		return
	}
	b, err := h.bookingSvc.SetTimeSlot(r.Context(), caller(r).UserID, id, body.DropoffAt)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) ConfirmTimeSlot(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.ConfirmTimeSlot(r.Context(), caller(r).UserID, id)
	})
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.ConfirmBooking(r.Context(), caller(r).UserID, id)
	})
}

func (h *BookingHandler) ActivateBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.ActivateBooking(r.Context(), id)
	})
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.CompleteBooking(r.Context(), id)
	})
}

type cancelBody struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var body cancelBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
	}
	c := caller(r)
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.CancelBooking(r.Context(), c.UserID, c.IsAdmin(), id, body.Reason)
	})
}

type approvalBody struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (h *BookingHandler) RespondToApproval(w http.ResponseWriter, r *http.Request) {
	var body approvalBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	h.transition(w, r, func(id int32) (*domain.Booking, error) {
		return h.bookingSvc.RespondToApproval(r.Context(), caller(r).UserID, id, body.Approve, body.Note)
	})
}

// transition runs a state change on the {id} booking. Complete and cancel may return the
// booking together with a capacity release error; the booking is still reported.
func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(id int32) (*domain.Booking, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	b, err := fn(id)
	if err != nil && b == nil {
		respondError(w, r, err)
		return
	}
	if err != nil {
		w.Header().Set("Warning", `199 - "capacity release pending"`)
	}
	writeJSON(w, http.StatusOK, b)
}
