package mvvm

type jsPredicateConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSPredicateOption configures the JS predicate engine.
type JSPredicateOption func(*jsPredicateConfig)

// JSWithProgramCache applies a ProgramCache to the JS engine.
func JSWithProgramCache(cache ProgramCache) JSPredicateOption {
	return func(cfg *jsPredicateConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS engine.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSPredicateOption {
	return func(cfg *jsPredicateConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSPredicateOptions(opts []JSPredicateOption) jsPredicateConfig {
	cfg := jsPredicateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
