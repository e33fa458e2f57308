package types

import (
	"time"

	"github.com/riordanpawley/tandem/internal/domain"
)

// ToastDuration is how long a toast stays on screen
const ToastDuration = 5 * time.Second

// Toast represents a notification message
type Toast struct {
	Level   ToastLevel
	Message string
	Expires time.Time
}

// ToastLevel indicates the severity of a toast
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// NewToast creates a toast expiring ToastDuration after now
func NewToast(level ToastLevel, message string, now time.Time) Toast {
	return Toast{Level: level, Message: message, Expires: now.Add(ToastDuration)}
}

// ErrorToast builds the toast shown for a failed operation. Transport
// failures are warnings since the board keeps working from local state.
func ErrorToast(err error, now time.Time) (Toast, bool) {
	kind := domain.Classify(err)
	if kind == domain.KindNone {
		return Toast{}, false
	}
	level := ToastError
	if kind == domain.KindTransport {
		level = ToastWarning
	}
	return NewToast(level, domain.UserMessage(err), now), true
}

// Expired reports whether the toast should be dropped at now
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// PruneToasts drops expired toasts, reusing the slice
func PruneToasts(toasts []Toast, now time.Time) []Toast {
	kept := toasts[:0]
	for _, t := range toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	return kept
}
