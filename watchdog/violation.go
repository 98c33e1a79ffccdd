package watchdog

import "fmt"

// ViolationError reports that a named timing parameter's guard fired —
// the parameter is one of tRAS, tRC, tRCD, tRP, tRRD, tRFC, tWR, tREF.
// bank and device both return *ViolationError from every watchdog-backed
// assertion, so a caller can errors.As past any wrapping to recover which
// parameter failed.
type ViolationError struct {
	Parameter string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s violated", e.Parameter)
}
