package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Any valid access token
	SecurityWorker                      // Worker or admin role
	SecurityAdmin                       // Admin role
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health": SecurityPublic,

	// Capacity and pricing queries
	"capacity.check": SecurityAccess,
	"pricing.quote":  SecurityAccess,

	// Bookings
	"bookings.create":           SecurityAccess,
	"bookings.create_behalf":    SecurityAccess,
	"bookings.get":              SecurityAccess,
	"bookings.list":             SecurityAccess,
	"bookings.confirm_slot":     SecurityAccess,
	"bookings.respond_approval": SecurityAccess,
	"bookings.cancel":           SecurityAccess,
	"bookings.set_slot":         SecurityWorker,
	"bookings.confirm":          SecurityAdmin,
	"bookings.activate":         SecurityAdmin,
	"bookings.complete":         SecurityAdmin,

	// Invoices
	"invoices.get":                    SecurityAccess,
	"invoices.list":                   SecurityAccess,
	"invoices.generate_booking":       SecurityAdmin,
	"invoices.generate_monthly":       SecurityAdmin,
	"invoices.generate_annual":        SecurityAdmin,
	"invoices.generate_service":       SecurityAdmin,
	"invoices.generate_monthly_batch": SecurityAdmin,

	// Payments
	"payments.process": SecurityAccess,
	"payments.confirm": SecurityAccess,
	"payments.history": SecurityAccess,
	"payments.credit":  SecurityAccess,
	"payments.refund":  SecurityAdmin,

	// Membership
	"membership.tier": SecurityAccess,

	// Tasks
	"tasks.create":      SecurityWorker,
	"tasks.reassign":    SecurityWorker,
	"tasks.start":       SecurityWorker,
	"tasks.complete":    SecurityWorker,
	"tasks.auto_assign": SecurityAdmin,
	"tasks.balance":     SecurityAdmin,
	"tasks.loads":       SecurityWorker,

	// Claims
	"claims.submit":        SecurityAccess,
	"claims.from_incident": SecurityAccess,
	"claims.get":           SecurityAccess,
	"claims.start_review":  SecurityAdmin,
	"claims.review":        SecurityAdmin,
	"claims.pay":           SecurityAdmin,
	"claims.stats":         SecurityAdmin,
	"claims.pending":       SecurityAdmin,
	"claims.escalate":      SecurityAdmin,

	// Notifications
	"notifications.list": SecurityAccess,
	"notifications.read": SecurityAccess,

	// Settings
	"settings.pricing":    SecurityAdmin,
	"settings.membership": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to authenticated access for unknown routes
	return SecurityAccess
}
