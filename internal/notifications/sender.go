package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"golang.org/x/time/rate"
)

// Platform hints shared by every visible notification.
const (
	clickAction      = "FLUTTER_NOTIFICATION_CLICK"
	androidChannelID = "default"
	defaultSound     = "default"
	tokenLogPrefix   = 10
)

// Transport is the subset of *messaging.Client the adapter needs.
type Transport interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: a nil sender, or one without a transport, logs the would-be
// send and reports success so the service runs without credentials.
type FCMSender struct {
	transport Transport
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewFCMSender creates a sender. transport may be nil (delivery disabled).
// perSecond <= 0 disables throttling.
func NewFCMSender(transport Transport, perSecond float64, logger *slog.Logger) *FCMSender {
	s := &FCMSender{transport: transport, logger: logger}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return s
}

// Enabled reports whether sends reach the transport.
func (s *FCMSender) Enabled() bool {
	return s != nil && s.transport != nil
}

// Deliver sends one push. Failures are logged and counted, never returned.
func (s *FCMSender) Deliver(ctx context.Context, p Push) bool {
	kind := p.Type()
	if !s.Enabled() {
		if s != nil && s.logger != nil {
			s.logger.Info("FCM send (delivery disabled)",
				"type", kind, "token", tokenPrefix(p.Token), "title", p.Title, "silent", p.Silent)
		}
		pushSent.WithLabelValues(kind).Inc()
		return true
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.failed(kind, p.Token, fmt.Errorf("throttle: %w", err))
			return false
		}
	}

	id, err := s.transport.Send(ctx, BuildMessage(p))
	if err != nil {
		s.failed(kind, p.Token, err)
		return false
	}
	pushSent.WithLabelValues(kind).Inc()
	s.logger.Info("Push sent", "type", kind, "token", tokenPrefix(p.Token), "message_id", id, "silent", p.Silent)
	return true
}

func (s *FCMSender) failed(kind, token string, err error) {
	pushFailed.WithLabelValues(kind).Inc()
	s.logger.Error("Push failed", "type", kind, "token", tokenPrefix(token), "error", err)
}

// BuildMessage converts a Push into the visible or silent FCM shape.
func BuildMessage(p Push) *messaging.Message {
	data := StringifyData(p.Data)

	if p.Silent {
		data["title"] = p.Title
		data["body"] = p.Body
		return &messaging.Message{
			Token:   p.Token,
			Data:    data,
			Android: &messaging.AndroidConfig{Priority: "high"},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{ContentAvailable: true},
				},
			},
		}
	}

	badge := 1
	return &messaging.Message{
		Token:        p.Token,
		Data:         data,
		Notification: &messaging.Notification{Title: p.Title, Body: p.Body},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:                 defaultSound,
				ClickAction:           clickAction,
				ChannelID:             androidChannelID,
				Priority:              messaging.PriorityHigh,
				Visibility:            messaging.VisibilityPublic,
				DefaultSound:          true,
				DefaultVibrateTimings: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: p.Title, Body: p.Body},
					Badge: &badge,
					Sound: defaultSound,
				},
			},
		},
	}
}

// StringifyData renders every value as text; FCM data maps are string-only.
// Nil values are dropped.
func StringifyData(in map[string]any) map[string]string {
	out := make(map[string]string, len(in)+2)
	for k, v := range in {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func tokenPrefix(token string) string {
	if len(token) <= tokenLogPrefix {
		return token
	}
	return token[:tokenLogPrefix] + "..."
}
