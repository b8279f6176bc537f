package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	projectTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_hub_project_transitions_total",
		Help: "Project lifecycle transitions by resulting status.",
	}, []string{"status"})

	taskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_hub_task_transitions_total",
		Help: "Task lifecycle transitions by resulting status.",
	}, []string{"status"})

	deliverableTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_hub_deliverable_transitions_total",
		Help: "Deliverable lifecycle transitions by resulting status.",
	}, []string{"status"})
)
