package domain

// ValidationError is a terminal, never-retried input error. It is returned
// before any side effect or network call happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}
