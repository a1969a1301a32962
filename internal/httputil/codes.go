package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeAuthorization      = "authorization"
	CodeMissingAuth        = "not_authenticated"
	CodeInvalidToken       = "authentication_failed"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeNotFound           = "not_found"
	CodeInternalError      = "internal_error"
)
