package mvvm

import "time"

// PredicateLogEvent describes one predicate evaluation for logging.
type PredicateLogEvent struct {
	Expr     string
	Duration time.Duration
	Result   bool
	Err      error
}

// PredicateLogger records predicate evaluations.
type PredicateLogger interface {
	LogPredicate(PredicateLogEvent)
}

// PredicateLoggerFunc adapts a function to PredicateLogger.
type PredicateLoggerFunc func(PredicateLogEvent)

// LogPredicate implements PredicateLogger.
func (f PredicateLoggerFunc) LogPredicate(event PredicateLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopPredicateLogger struct{}

func (noopPredicateLogger) LogPredicate(PredicateLogEvent) {}
