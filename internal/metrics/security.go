package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SecurityMetrics records security-relevant events: webhook verification
// outcomes, privacy redactions, rate-limit decisions, and session rejections.
type SecurityMetrics interface {
	// RecordWebhookVerification records a webhook signature check.
	// Outcome is "verified" or "rejected".
	RecordWebhookVerification(ctx context.Context, topic, outcome string)

	// RecordRedaction records a processed privacy operation with its status
	// ("completed" or "failed").
	RecordRedaction(ctx context.Context, topic, status string)

	// RecordRateLimitDecision records an allow or deny for an endpoint class.
	RecordRateLimitDecision(ctx context.Context, class string, allowed bool)

	// RecordSessionRejection records a session cookie that failed to open.
	RecordSessionRejection(ctx context.Context)
}

// securityMetrics implements SecurityMetrics using OpenTelemetry counters.
type securityMetrics struct {
	verificationCounter metric.Int64Counter
	redactionCounter    metric.Int64Counter
	rateLimitCounter    metric.Int64Counter
	sessionCounter      metric.Int64Counter
}

// NewSecurityMetrics creates a SecurityMetrics implementation on the given
// meter provider. The namespace prefixes all metric names.
func NewSecurityMetrics(meterProvider metric.MeterProvider, namespace string) (SecurityMetrics, error) {
	meter := meterProvider.Meter(namespace)

	verificationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_webhook_verifications_total", namespace),
		metric.WithDescription("Total number of webhook signature checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification counter: %w", err)
	}

	redactionCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_redactions_total", namespace),
		metric.WithDescription("Total number of processed privacy operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redaction counter: %w", err)
	}

	rateLimitCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_rate_limit_decisions_total", namespace),
		metric.WithDescription("Total number of rate limit decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	sessionCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_session_rejections_total", namespace),
		metric.WithDescription("Total number of rejected session cookies"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session counter: %w", err)
	}

	return &securityMetrics{
		verificationCounter: verificationCounter,
		redactionCounter:    redactionCounter,
		rateLimitCounter:    rateLimitCounter,
		sessionCounter:      sessionCounter,
	}, nil
}

func (s *securityMetrics) RecordWebhookVerification(ctx context.Context, topic, outcome string) {
	s.verificationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("outcome", outcome),
		),
	)
}

func (s *securityMetrics) RecordRedaction(ctx context.Context, topic, status string) {
	s.redactionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("status", status),
		),
	)
}

func (s *securityMetrics) RecordRateLimitDecision(ctx context.Context, class string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	s.rateLimitCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("class", class),
			attribute.String("outcome", outcome),
		),
	)
}

func (s *securityMetrics) RecordSessionRejection(ctx context.Context) {
	s.sessionCounter.Add(ctx, 1)
}

// NoOpSecurityMetrics is used when metrics are disabled.
type NoOpSecurityMetrics struct{}

// NewNoOpSecurityMetrics creates a no-op SecurityMetrics implementation.
func NewNoOpSecurityMetrics() SecurityMetrics {
	return &NoOpSecurityMetrics{}
}

// RecordWebhookVerification does nothing when metrics are disabled.
func (n *NoOpSecurityMetrics) RecordWebhookVerification(ctx context.Context, topic, outcome string) {
}

// RecordRedaction does nothing when metrics are disabled.
func (n *NoOpSecurityMetrics) RecordRedaction(ctx context.Context, topic, status string) {}

// RecordRateLimitDecision does nothing when metrics are disabled.
func (n *NoOpSecurityMetrics) RecordRateLimitDecision(ctx context.Context, class string, allowed bool) {
}

// RecordSessionRejection does nothing when metrics are disabled.
func (n *NoOpSecurityMetrics) RecordSessionRejection(ctx context.Context) {}
