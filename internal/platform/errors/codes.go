// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Registration rejections: nothing is stored.
	CodeLeaderIDEmpty          Code = "LEADER_ID_EMPTY"
	CodeLeaderIDReserved       Code = "LEADER_ID_RESERVED"
	CodeLeaderConfigInvalid    Code = "LEADER_CONFIG_INVALID"
	CodeLeaderImagePathMissing Code = "LEADER_IMAGE_PATH_MISSING"

	// Field drops: the registration still succeeds without the field.
	CodeLeaderStateUnknown    Code = "LEADER_STATE_UNKNOWN"
	CodeLeaderStatePathEmpty  Code = "LEADER_STATE_PATH_EMPTY"
	CodeLeaderSurfaceUnknown  Code = "LEADER_SURFACE_UNKNOWN"
	CodeLeaderOverrideInvalid Code = "LEADER_OVERRIDE_INVALID"
	CodeLeaderOptionUnknown   Code = "LEADER_OPTION_UNKNOWN"

	// Shared store errors
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeStoreCorrupt     Code = "STORE_CORRUPT"
)

// Severity classifies how a code affects the operation that raised it.
type Severity string

const (
	// SeverityReject means the whole operation was refused.
	SeverityReject Severity = "reject"
	// SeverityDrop means one field was discarded and the operation continued.
	SeverityDrop Severity = "drop"
	// SeverityIgnored means a best-effort side effect failed and was swallowed.
	SeverityIgnored Severity = "ignored"
)

// Severity maps domain codes to their effect on the caller.
func (c Code) Severity() Severity {
	switch c {
	case CodeLeaderIDEmpty,
		CodeLeaderIDReserved,
		CodeLeaderConfigInvalid,
		CodeLeaderImagePathMissing:
		return SeverityReject

	case CodeLeaderStateUnknown,
		CodeLeaderStatePathEmpty,
		CodeLeaderSurfaceUnknown,
		CodeLeaderOverrideInvalid,
		CodeLeaderOptionUnknown:
		return SeverityDrop

	case CodeStoreUnavailable,
		CodeStoreCorrupt:
		return SeverityIgnored

	default:
		return SeverityReject
	}
}
