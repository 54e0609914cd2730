package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_api"

// Registry is the process-wide registry served on /api/debug/metrics.
var Registry = prometheus.NewRegistry()

// Outcome label values.
const (
	OutcomeNew            = "new"
	OutcomeReissued       = "reissued"
	OutcomeDuplicate      = "duplicate"
	OutcomeVerified       = "verified"
	OutcomeMismatch       = "mismatch"
	OutcomeUnknown        = "unknown_account"
	OutcomeSuccess        = "success"
	OutcomeNotRegistered  = "not_registered"
	OutcomeIncomplete     = "incomplete"
	OutcomeBadCredentials = "bad_credentials"
	OutcomeValid          = "valid"
	OutcomeInvalid        = "invalid"
	OutcomeError          = "error"
)

var (
	// RegistrationRequests counts RequestRegistration calls by outcome: new|reissued|duplicate|error
	RegistrationRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_requests_total",
			Help:      "Registration requests by outcome",
		},
		[]string{"outcome"},
	)

	// CodeChecks counts SubmitCode calls by outcome: verified|mismatch|unknown_account|error
	CodeChecks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_code_checks_total",
			Help:      "Verification code submissions by outcome",
		},
		[]string{"outcome"},
	)

	// VerificationMails counts verification mails handed to the transport.
	VerificationMails = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_mails_total",
			Help:      "Verification mails by outcome",
		},
		[]string{"outcome"},
	)

	// Logins counts login attempts by outcome.
	Logins = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Promotions counts role promotions by from/to role.
	Promotions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Role promotions by source and target role",
		},
		[]string{"from", "to"},
	)

	// TokenValidations counts bearer tokens seen by the authentication filter: valid|invalid
	TokenValidations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Bearer token validations by outcome",
		},
		[]string{"outcome"},
	)
)

var initOnce sync.Once

// Init registers the Go runtime and process collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
