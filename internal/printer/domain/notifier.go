package domain

// Notifier is the operator-facing callback surface. The core never renders
// UI; the embedding application decides how to ask.
type Notifier interface {
	AskYesNo(short, long string) bool
	Warn(short, long string)
}
