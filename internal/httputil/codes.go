package httputil

// Machine-readable error codes returned alongside error messages.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInvalidCredentials = "invalid_credentials"
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeNotFound           = "not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeInternalError      = "internal_error"
)
