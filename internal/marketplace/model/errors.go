package model

// ErrValidation is returned by service methods when the caller supplies invalid
// input. Handlers convert it to HTTP 400 rather than 500.
type ErrValidation struct{ Msg string }

func (e *ErrValidation) Error() string { return e.Msg }
