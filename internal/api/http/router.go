package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"warehub-backend/internal/config"
	"warehub-backend/internal/security"
	"warehub-backend/internal/service"
)

// Services bundles everything the API routes call into.
type Services struct {
	Capacity     service.CapacityService
	Pricing      service.PricingService
	Membership   service.MembershipService
	Settings     service.SettingsResolver
	Booking      service.BookingService
	Invoice      service.InvoiceService
	Payment      service.PaymentService
	Task         service.TaskService
	Claim        service.ClaimService
	Notification service.NotificationService
	// Ping reports storage readiness for /healthz. Nil means always ready.
	Ping func(ctx context.Context) error
}

// NewRouter registers every API route by name. Route names key config.EndpointSecurityConfig.
func NewRouter(svcs Services, tm security.TokenManager, cfg config.ServerConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(recoverer, NewAuthMiddleware(tm).Handler)

	router.HandleFunc("/healthz", healthHandler(svcs.Ping)).Methods(http.MethodGet).Name("health")

	api := router.PathPrefix("/api/v1").Subrouter()

	catalog := NewCatalogHandler(svcs.Capacity, svcs.Pricing, svcs.Membership, svcs.Settings)
	api.HandleFunc("/capacity/check", catalog.CheckCapacity).Methods(http.MethodPost).Name("capacity.check")
	api.HandleFunc("/pricing/quote", catalog.QuotePricing).Methods(http.MethodPost).Name("pricing.quote")
	api.HandleFunc("/membership", catalog.MembershipTier).Methods(http.MethodGet).Name("membership.tier")
	api.HandleFunc("/settings/pricing", catalog.UpdatePricingRule).Methods(http.MethodPut).Name("settings.pricing")
	api.HandleFunc("/settings/membership", catalog.UpdateMembershipTiers).Methods(http.MethodPut).Name("settings.membership")

	bookings := NewBookingHandler(svcs.Booking)
	api.HandleFunc("/bookings", bookings.CreateBooking).Methods(http.MethodPost).Name("bookings.create")
	api.HandleFunc("/bookings", bookings.ListBookings).Methods(http.MethodGet).Name("bookings.list")
	api.HandleFunc("/bookings/on-behalf", bookings.CreateBookingOnBehalf).Methods(http.MethodPost).Name("bookings.create_behalf")
	api.HandleFunc("/bookings/{id:[0-9]+}", bookings.GetBooking).Methods(http.MethodGet).Name("bookings.get")
	api.HandleFunc("/bookings/{id:[0-9]+}/time-slot", bookings.SetTimeSlot).Methods(http.MethodPut).Name("bookings.set_slot")
	api.HandleFunc("/bookings/{id:[0-9]+}/time-slot/confirm", bookings.ConfirmTimeSlot).Methods(http.MethodPost).Name("bookings.confirm_slot")
	api.HandleFunc("/bookings/{id:[0-9]+}/approval", bookings.RespondToApproval).Methods(http.MethodPost).Name("bookings.respond_approval")
	api.HandleFunc("/bookings/{id:[0-9]+}/confirm", bookings.ConfirmBooking).Methods(http.MethodPost).Name("bookings.confirm")
	api.HandleFunc("/bookings/{id:[0-9]+}/activate", bookings.ActivateBooking).Methods(http.MethodPost).Name("bookings.activate")
	api.HandleFunc("/bookings/{id:[0-9]+}/complete", bookings.CompleteBooking).Methods(http.MethodPost).Name("bookings.complete")
	api.HandleFunc("/bookings/{id:[0-9]+}/cancel", bookings.CancelBooking).Methods(http.MethodPost).Name("bookings.cancel")

	invoices := NewInvoiceHandler(svcs.Invoice)
	api.HandleFunc("/invoices", invoices.ListInvoices).Methods(http.MethodGet).Name("invoices.list")
	api.HandleFunc("/invoices/monthly-batch", invoices.GenerateMonthlyBatch).Methods(http.MethodPost).Name("invoices.generate_monthly_batch")
	api.HandleFunc("/invoices/{id:[0-9]+}", invoices.GetInvoice).Methods(http.MethodGet).Name("invoices.get")
	api.HandleFunc("/bookings/{id:[0-9]+}/invoices/booking", invoices.GenerateBookingInvoice).Methods(http.MethodPost).Name("invoices.generate_booking")
	api.HandleFunc("/bookings/{id:[0-9]+}/invoices/monthly", invoices.GenerateMonthlyInvoice).Methods(http.MethodPost).Name("invoices.generate_monthly")
	api.HandleFunc("/bookings/{id:[0-9]+}/invoices/annual", invoices.GenerateAnnualInvoice).Methods(http.MethodPost).Name("invoices.generate_annual")
	api.HandleFunc("/service-orders/{id:[0-9]+}/invoice", invoices.GenerateServiceOrderInvoice).Methods(http.MethodPost).Name("invoices.generate_service")

	payments := NewPaymentHandler(svcs.Payment)
	api.HandleFunc("/payments", payments.ProcessPayment).Methods(http.MethodPost).Name("payments.process")
	api.HandleFunc("/payments", payments.PaymentHistory).Methods(http.MethodGet).Name("payments.history")
	api.HandleFunc("/payments/{id:[0-9]+}/confirm", payments.ConfirmPayment).Methods(http.MethodPost).Name("payments.confirm")
	api.HandleFunc("/payments/{id:[0-9]+}/refund", payments.RefundPayment).Methods(http.MethodPost).Name("payments.refund")
	api.HandleFunc("/credit", payments.CreditBalance).Methods(http.MethodGet).Name("payments.credit")

	tasks := NewTaskHandler(svcs.Task)
	api.HandleFunc("/tasks", tasks.CreateTask).Methods(http.MethodPost).Name("tasks.create")
	api.HandleFunc("/tasks/{id:[0-9]+}/reassign", tasks.ReassignTask).Methods(http.MethodPost).Name("tasks.reassign")
	api.HandleFunc("/tasks/{id:[0-9]+}/start", tasks.StartTask).Methods(http.MethodPost).Name("tasks.start")
	api.HandleFunc("/tasks/{id:[0-9]+}/complete", tasks.CompleteTask).Methods(http.MethodPost).Name("tasks.complete")
	api.HandleFunc("/warehouses/{warehouseID:[0-9]+}/tasks/auto-assign", tasks.AutoAssign).Methods(http.MethodPost).Name("tasks.auto_assign")
	api.HandleFunc("/warehouses/{warehouseID:[0-9]+}/tasks/balance", tasks.Balance).Methods(http.MethodPost).Name("tasks.balance")
	api.HandleFunc("/warehouses/{warehouseID:[0-9]+}/workers/load", tasks.WorkerLoads).Methods(http.MethodGet).Name("tasks.loads")

	claims := NewClaimHandler(svcs.Claim)
	api.HandleFunc("/claims", claims.SubmitClaim).Methods(http.MethodPost).Name("claims.submit")
	api.HandleFunc("/claims/stats", claims.Stats).Methods(http.MethodGet).Name("claims.stats")
	api.HandleFunc("/claims/pending", claims.Pending).Methods(http.MethodGet).Name("claims.pending")
	api.HandleFunc("/claims/escalate", claims.Escalate).Methods(http.MethodPost).Name("claims.escalate")
	api.HandleFunc("/claims/{id:[0-9]+}", claims.GetClaim).Methods(http.MethodGet).Name("claims.get")
	api.HandleFunc("/claims/{id:[0-9]+}/review/start", claims.StartReview).Methods(http.MethodPost).Name("claims.start_review")
	api.HandleFunc("/claims/{id:[0-9]+}/review", claims.ReviewClaim).Methods(http.MethodPost).Name("claims.review")
	api.HandleFunc("/claims/{id:[0-9]+}/pay", claims.PayClaim).Methods(http.MethodPost).Name("claims.pay")
	api.HandleFunc("/incidents/{id:[0-9]+}/claims", claims.ClaimFromIncident).Methods(http.MethodPost).Name("claims.from_incident")

	notes := NewNotificationHandler(svcs.Notification)
	api.HandleFunc("/notifications", notes.List).Methods(http.MethodGet).Name("notifications.list")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", notes.MarkAsRead).Methods(http.MethodPost).Name("notifications.read")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})

	var h http.Handler = router
	h = rateLimiter(cfg.RateLimitPerMinute)(h)
	h = secureHeaders(cfg.IsDevelopment)(h)
	h = requestLogger(h)
	return h
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeProblem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
