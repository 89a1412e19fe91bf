package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Global logger instance
	Logger *zap.Logger

	// Metrics
	messagesCheckedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_checked_total",
			Help: "Total number of group messages run through moderation",
		},
	)

	spamDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spam_detected_total",
			Help: "Total number of messages that crossed the spam threshold",
		},
		[]string{"type"},
	)

	captchaOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captcha_outcomes_total",
			Help: "Captcha challenge resolutions by outcome",
		},
		[]string{"outcome"},
	)

	messageProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "Time spent processing messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func Init(ctx context.Context, metricsAddr string) error {
	// Initialize logger
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	// Register metrics
	prometheus.MustRegister(messagesCheckedTotal)
	prometheus.MustRegister(spamDetectedTotal)
	prometheus.MustRegister(captchaOutcomesTotal)
	prometheus.MustRegister(messageProcessingDuration)

	// Setup OpenTelemetry (simplified setup)
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	// Start Prometheus metrics endpoint
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// RecordMessageChecked counts a message that entered the moderation pipeline.
func RecordMessageChecked() {
	messagesCheckedTotal.Inc()
}

// RecordSpamDetection records a message removed by moderation, spamType is
// "spam" or "flood".
func RecordSpamDetection(spamType string) {
	spamDetectedTotal.WithLabelValues(spamType).Inc()
}

// RecordCaptchaOutcome records how a verification challenge ended.
func RecordCaptchaOutcome(outcome string) {
	captchaOutcomesTotal.WithLabelValues(outcome).Inc()
}

// StartMessageProcessing returns a function to record message processing duration
func StartMessageProcessing() func(status string) {
	start := prometheus.NewTimer(messageProcessingDuration.WithLabelValues("processing"))
	return func(status string) {
		start.ObserveDuration()
	}
}
