package device

import "github.com/sdram-model/sdram64/watchdog"

// ViolationError is the type every timing-parameter assertion in device
// and bank returns on failure. It lives in watchdog, where the watchdogs
// themselves are defined, and is aliased here so callers reach for it as
// device.ViolationError per this model's public error-handling surface.
type ViolationError = watchdog.ViolationError
