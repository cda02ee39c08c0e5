package logger

import (
	"log/slog"
	"time"
)

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// CustomerID is the billing provider's customer identifier.
func CustomerID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("customer_id", id)
}

// EventID is the billing provider's webhook event identifier.
func EventID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("event_id", id)
}

func EventType(t string) slog.Attr {
	return slog.String("event_type", t)
}

func PackID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("pack_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}
