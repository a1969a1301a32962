// Package metrics holds the Prometheus collectors for account and token flows.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
	ResultHit       = "hit"
	ResultMiss      = "miss"

	FlowCreated = "created"
	FlowReused  = "reused"
)

var (
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_logins_total",
			Help: "Total number of credential validations.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_tokens_issued_total",
			Help: "Total number of tokens handed out, new or existing.",
		},
		[]string{"flow"},
	)

	AuthenticationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_token_authentications_total",
			Help: "Total number of token authentication attempts.",
		},
		[]string{"result"},
	)

	TokenCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_token_cache_lookups_total",
			Help: "Token cache lookups by outcome.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// MustRegister adds every collector to the default registry. Safe to call twice.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RegistrationsTotal,
			LoginsTotal,
			TokensIssuedTotal,
			AuthenticationsTotal,
			TokenCacheLookupsTotal,
		)
	})
}
