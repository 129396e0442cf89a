package model

// ResultCode classifies the outcome of a dispatched platform request. Every
// dispatcher callback carries exactly one of these; completion paths never
// raise errors across the callback boundary.
type ResultCode int

const (
	// ResultUnknown is the zero value: a response that could not be
	// classified.
	ResultUnknown ResultCode = iota
	ResultSuccess
	ResultFailed
	ResultNotFound
	ResultAccessDenied
	ResultRunningCommercial
	ResultInvalidChannel
	ResultInvalidStreamStatus
)

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "SUCCESS"
	case ResultFailed:
		return "FAILED"
	case ResultNotFound:
		return "NOT_FOUND"
	case ResultAccessDenied:
		return "ACCESS_DENIED"
	case ResultRunningCommercial:
		return "RUNNING_COMMERCIAL"
	case ResultInvalidChannel:
		return "INVALID_CHANNEL"
	case ResultInvalidStreamStatus:
		return "INVALID_STREAM_STATUS"
	default:
		return "UNKNOWN"
	}
}

// Ok reports whether the request completed successfully.
func (c ResultCode) Ok() bool {
	return c == ResultSuccess
}
