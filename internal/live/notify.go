package live

import "log"

// Notifier is the user-facing message sink: the web client renders these as
// toasts, the service falls back to the log.
type Notifier interface {
	Info(title, message string)
	Error(title, message string)
}

type LogNotifier struct{}

func (LogNotifier) Info(title, message string) {
	log.Printf("[notify] %s: %s", title, message)
}

func (LogNotifier) Error(title, message string) {
	log.Printf("[notify] ERROR %s: %s", title, message)
}
