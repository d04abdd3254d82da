package errors

// ErrorCode is a stable, machine-readable identifier for a failure category.
// Codes are namespaced by subsystem so that metrics and API clients can key
// on them without parsing messages.
type ErrorCode string

// Common codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
)

// Keyword-research domain codes.
const (
	ErrCodeInvalidASIN        ErrorCode = "KW_001"
	ErrCodeProviderFailed     ErrorCode = "KW_002"
	ErrCodeSessionNotFound    ErrorCode = "KW_003"
	ErrCodeNoProductData      ErrorCode = "KW_004"
	ErrCodeEnrichmentFailed   ErrorCode = "KW_005"
	ErrCodeReconstructFailed  ErrorCode = "KW_006"
	ErrCodeProviderRateLimit  ErrorCode = "KW_007"
	ErrCodeSessionNameTooLong ErrorCode = "KW_008"
)

// String returns the code identifier itself; ErrorCode is already a string
// type but implementing Stringer keeps fmt verbs consistent.
func (c ErrorCode) String() string { return string(c) }
