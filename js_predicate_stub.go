//go:build !js_eval

package mvvm

// NewJSPredicateEvaluator is unavailable without the js_eval build tag.
func NewJSPredicateEvaluator(opts ...JSPredicateOption) PredicateEvaluator {
	_ = applyJSPredicateOptions(opts)
	return nil
}

func jsPredicateAvailable() bool {
	return false
}
