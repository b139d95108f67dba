package instruments

import "errors"

// ErrNotInitialized is returned by driver operations invoked before a
// successful Init. Drivers guarantee no bus transaction happens in that case.
var ErrNotInitialized = errors.New("sensor not initialized")

// ErrBadDeviceID is returned when a device identity check does not match
// the expected silicon ID.
var ErrBadDeviceID = errors.New("unexpected device id")

// ErrInvalidArgument is returned on out-of-contract arguments (nil bus,
// invalid buffer sizes) before any bus transaction.
var ErrInvalidArgument = errors.New("invalid argument")
