package guardrail

import "errors"

// Sentinel kinds for guardrail policy errors. Brackets are operational
// policy; a missing or incoherent one aborts the call loudly.
var (
	ErrBracketMissing = errors.New("guardrail bracket missing")
	ErrBracketInvalid = errors.New("guardrail bracket invalid")
)
