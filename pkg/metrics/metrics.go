package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PriceFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dash_price_fetches_total",
		Help: "Successful quote fetches",
	})

	PriceFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dash_price_fetch_errors_total",
		Help: "Failed quote fetches",
	})

	StatusMerges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dash_status_merges_total",
		Help: "Entity upserts by source",
	}, []string{"source"}) // push | poll

	PollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dash_status_poll_ticks_total",
		Help: "Fallback poll executions",
	})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dash_actions_total",
		Help: "Dispatched entity actions by outcome",
	}, []string{"action", "outcome"}) // outcome: ok | error | duplicate

	PushConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dash_push_connected",
		Help: "1 while the push channel is connected",
	})
)
