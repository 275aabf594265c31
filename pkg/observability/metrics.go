package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/finagentlabs/finagent/pkg/domain"
)

// Metrics holds the Prometheus collectors for agent runs. Register it with
// a registry and wire Hooks() into the agent.
type Metrics struct {
	nodeVisits   *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finagent_node_visits_total",
				Help: "Total number of graph node executions",
			},
			[]string{"node"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finagent_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "finagent_tool_duration_seconds",
				Help: "Duration of tool invocations",
			},
			[]string{"tool"},
		),
	}
}

// Register adds all collectors to the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.nodeVisits, m.toolCalls, m.toolDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that record the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(string(e.Node)).Inc()
		},
		OnToolCall: func(_ context.Context, e *domain.ToolEvent) {
			m.toolCalls.WithLabelValues(e.ToolName).Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
	}
}

// Merge chains two hook sets, invoking a's callback before b's.
func Merge(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter:  mergeNode(a.OnNodeEnter, b.OnNodeEnter),
		OnNodeLeave:  mergeNode(a.OnNodeLeave, b.OnNodeLeave),
		OnToolCall:   mergeTool(a.OnToolCall, b.OnToolCall),
		OnToolReturn: mergeTool(a.OnToolReturn, b.OnToolReturn),
	}
}

func mergeNode(fns ...func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	return func(ctx context.Context, e *domain.NodeEvent) {
		for _, fn := range fns {
			if fn != nil {
				fn(ctx, e)
			}
		}
	}
}

func mergeTool(fns ...func(context.Context, *domain.ToolEvent)) func(context.Context, *domain.ToolEvent) {
	return func(ctx context.Context, e *domain.ToolEvent) {
		for _, fn := range fns {
			if fn != nil {
				fn(ctx, e)
			}
		}
	}
}
