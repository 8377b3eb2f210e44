package middleware

import "net/http"

// Stage is one middleware stage in the request pipeline. Stages are declared
// once at startup as an ordered list rather than scattered across modules, so
// the execution order is explicit and deterministic.
type Stage struct {
	Name    string
	Enabled bool
	Wrap    func(http.Handler) http.Handler
}

// Chain applies the enabled stages to h so that the first stage in the list
// is the outermost wrapper. No request bypasses an enabled stage.
func Chain(h http.Handler, stages ...Stage) http.Handler {
	wrapped := h
	for i := len(stages) - 1; i >= 0; i-- {
		if !stages[i].Enabled || stages[i].Wrap == nil {
			continue
		}
		wrapped = stages[i].Wrap(wrapped)
	}
	return wrapped
}

// StageNames returns the names of the enabled stages in execution order,
// outermost first. Used for the startup log.
func StageNames(stages []Stage) []string {
	var names []string
	for _, s := range stages {
		if s.Enabled && s.Wrap != nil {
			names = append(names, s.Name)
		}
	}
	return names
}
