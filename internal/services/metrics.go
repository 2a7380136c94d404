package services

import "github.com/prometheus/client_golang/prometheus"

// Forum activity counters, exported on /metrics with the HTTP collectors.
var (
	threadsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_threads_created_total",
		Help: "Threads created.",
	})
	postsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Replies created.",
	})
	reactionsToggled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_reactions_toggled_total",
		Help: "Reaction toggles by outcome.",
	}, []string{"action"})
	threadViews = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_thread_views_total",
		Help: "Recorded thread views.",
	})
)

func init() {
	prometheus.MustRegister(threadsCreated, postsCreated, reactionsToggled, threadViews)
}
