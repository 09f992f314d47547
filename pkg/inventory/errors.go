package inventory

import "errors"

// ErrSlotNotFound is the panic value (wrapped) raised by Discard when the
// slot is not held by the container. Passing a foreign slot is a programming
// error, not a recoverable condition.
var ErrSlotNotFound = errors.New("inventory: slot not found")
