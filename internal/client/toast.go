package client

import (
	"context"
	"errors"
	"log/slog"
)

// Toast is a transient user-visible notification.
type Toast struct {
	Title       string
	Description string
	Destructive bool
}

// Toaster shows toasts.
type Toaster interface {
	Toast(Toast)
}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(Toast)

func (f ToasterFunc) Toast(t Toast) { f(t) }

// LogToaster writes toasts to a structured logger.
type LogToaster struct {
	Logger *slog.Logger
}

func (l LogToaster) Toast(t Toast) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if t.Destructive {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "toast", slog.String("title", t.Title), slog.String("description", t.Description))
}

func successToast(description string) Toast {
	return Toast{Title: "Success", Description: description}
}

func errorToast(description string) Toast {
	return Toast{Title: "Error", Description: description, Destructive: true}
}

// userMessage is the text a failed call shows: the API's own message when
// there is one.
func userMessage(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, ErrNotAuthenticated):
		return "Not authenticated"
	default:
		return err.Error()
	}
}
