package nepse

import "errors"

// ErrUnknown covers transport and parse failures where no upstream message
// exists; handlers translate it to the generic "Unknown error" envelope.
var ErrUnknown = errors.New("unknown error")

// UpstreamError carries the failure message from a rejected upstream
// response (non-2xx status or an explicit success:false body).
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// AsUpstream returns the UpstreamError inside err, if any.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
