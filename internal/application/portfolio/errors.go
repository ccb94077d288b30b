package portfolio

import "errors"

// ErrHoldingNotFound is returned when a sale references a holding that does not exist.
var ErrHoldingNotFound = errors.New("Holding not found")

// PersistenceError wraps a store or transaction failure. Nothing of the
// failed operation was committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
