package logger

import (
	"context"
	"fmt"
)

// contextKey is a private type to avoid collisions in context.
type contextKey string

const (
	ctxRID       contextKey = "rid"
	ctxMessageID contextKey = "message_id"
	ctxUserID    contextKey = "user_id"
)

// WithRID attaches a dispatch correlation id to the context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if rid == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts the correlation id from context if present.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxRID).(string); ok {
		return s
	}
	return ""
}

// WithEventMeta attaches the triggering message and user ids to the context.
func WithEventMeta(ctx context.Context, messageID, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if messageID != "" {
		ctx = context.WithValue(ctx, ctxMessageID, messageID)
	}
	if userID != "" {
		ctx = context.WithValue(ctx, ctxUserID, userID)
	}
	return ctx
}

// MessageIDFrom extracts the target message id from context.
func MessageIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxMessageID).(string); ok {
		return s
	}
	return ""
}

// UserIDFrom extracts the acting user id from context.
func UserIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxUserID).(string); ok {
		return s
	}
	return ""
}

// BuildRID returns a correlation identifier in the format messageID:userID:key.
func BuildRID(messageID, userID, key string) string {
	return fmt.Sprintf("%s:%s:%s", messageID, userID, key)
}
