package internaldefs

import (
	"github.com/authgate/authgate"
)

// CounterDef binds a core metric ID to its exported name and help text.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricRegisterSuccess, Name: "authgate_register_success_total", Help: "Successful account registrations."},
	{ID: authgate.MetricRegisterConflict, Name: "authgate_register_conflict_total", Help: "Registrations rejected as duplicate."},
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginRateLimited, Name: "authgate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authgate.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: authgate.MetricSessionInvalidated, Name: "authgate_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: authgate.MetricSessionInvalidationFailed, Name: "authgate_session_invalidation_failed_total", Help: "Best-effort session invalidations that failed."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: authgate.MetricResetRequest, Name: "authgate_password_reset_request_total", Help: "Password reset requests that issued a code."},
	{ID: authgate.MetricResetDeliveryFailure, Name: "authgate_password_reset_delivery_failure_total", Help: "Reset code delivery failures."},
	{ID: authgate.MetricResetConfirmSuccess, Name: "authgate_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authgate.MetricResetConfirmFailure, Name: "authgate_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricAuthenticateLatency, Name: "authgate_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bounds of the core latency buckets, in
// seconds, matching the engine's fixed bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds instrument-name-safe forms of
// [HistogramBounds], used where "." and "+" are not valid characters.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a raw snapshot slice into the fixed 8-bucket
// layout, tolerating short or nil input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
