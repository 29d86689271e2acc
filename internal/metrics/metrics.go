package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LegacyPasswordMigrations counts MD5 hashes upgraded to bcrypt at login.
	LegacyPasswordMigrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nawel_legacy_password_migrations_total",
		Help: "Number of legacy MD5 password hashes upgraded to bcrypt on login",
	})

	// LegacyPasswordMismatches counts failed logins against a still-legacy
	// hash, distinguishing stale-format mismatches from plain wrong passwords.
	LegacyPasswordMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nawel_legacy_password_mismatches_total",
		Help: "Number of failed login attempts against a legacy MD5 hash",
	})

	// ReservationConflicts counts reservation writes that lost an optimistic
	// update race and were retried or surfaced as conflicts.
	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nawel_reservation_conflicts_total",
		Help: "Number of gift reservation operations that hit a concurrent update",
	})
)
