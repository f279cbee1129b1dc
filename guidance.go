package vello

// Guidance is a human-readable record derived from an error's
// classification code. It is presentation data for UIs and logs, not an
// error channel of its own.
type Guidance struct {
	Title       string
	Description string
	Suggestions []string
}

var guidanceTable = map[string]Guidance{
	CodeNetworkError: {
		Title:       "Network error",
		Description: "The request never reached a server.",
		Suggestions: []string{
			"Check the network connection",
			"Verify the base URL and DNS resolution",
			"Retry once connectivity is restored",
		},
	},
	CodeTimeout: {
		Title:       "Request timed out",
		Description: "The attempt exceeded its deadline and was cancelled.",
		Suggestions: []string{
			"Increase the request timeout",
			"Check server responsiveness",
			"Enable retries for transient slowness",
		},
	},
	CodeRateLimited: {
		Title:       "Rate limited",
		Description: "The client-side rate limiter rejected the attempt before its deadline.",
		Suggestions: []string{
			"Lower the request rate",
			"Increase the limiter burst size",
			"Extend the request timeout to allow waiting for a token",
		},
	},
	CodeValidation: {
		Title:       "Invalid configuration",
		Description: "The client was constructed with an invalid option combination.",
		Suggestions: []string{
			"Inspect ValidationError() for the exact fields",
			"Fix the offending options and rebuild the client",
		},
	},
	"400": {
		Title:       "Bad request",
		Description: "The server rejected the request as malformed.",
		Suggestions: []string{
			"Verify the request body and parameters",
			"Check required fields and their formats",
		},
	},
	"401": {
		Title:       "Unauthorized",
		Description: "The request lacks valid authentication credentials.",
		Suggestions: []string{
			"Refresh or supply an authentication token",
			"Redirect the user to sign in",
		},
	},
	"403": {
		Title:       "Forbidden",
		Description: "The credentials are valid but lack permission.",
		Suggestions: []string{
			"Verify the account's permissions",
			"Request access to the resource",
		},
	},
	"404": {
		Title:       "Not found",
		Description: "The requested resource does not exist.",
		Suggestions: []string{
			"Check the endpoint path for typos",
			"Verify the resource identifier",
		},
	},
	"409": {
		Title:       "Conflict",
		Description: "The request conflicts with the current server state.",
		Suggestions: []string{
			"Refetch the resource and reapply the change",
			"Check for concurrent modifications",
		},
	},
	"422": {
		Title:       "Unprocessable entity",
		Description: "The server understood the request but rejected its content.",
		Suggestions: []string{
			"Inspect the error body for field-level details",
			"Validate the payload before sending",
		},
	},
	"429": {
		Title:       "Too many requests",
		Description: "The server is throttling this client.",
		Suggestions: []string{
			"Honor the Retry-After header",
			"Reduce the request rate",
		},
	},
	"500": {
		Title:       "Server error",
		Description: "The server encountered an internal error.",
		Suggestions: []string{
			"Retry with backoff",
			"Report the failure to the API operator",
		},
	},
	"502": {
		Title:       "Bad gateway",
		Description: "An intermediary received an invalid upstream response.",
		Suggestions: []string{
			"Retry with backoff",
			"Check upstream service health",
		},
	},
	"503": {
		Title:       "Service unavailable",
		Description: "The server is temporarily unable to handle the request.",
		Suggestions: []string{
			"Retry with backoff",
			"Honor the Retry-After header if present",
		},
	},
	"504": {
		Title:       "Gateway timeout",
		Description: "An intermediary timed out waiting for the upstream server.",
		Suggestions: []string{
			"Retry with backoff",
			"Increase the request timeout",
		},
	},
	CodeUnknown: {
		Title:       "Unexpected error",
		Description: "The failure did not match any known category.",
		Suggestions: []string{
			"Inspect the error cause for details",
			"Enable debug logging to trace the request",
		},
	},
}

// guidanceFor resolves the guidance record for a classification code,
// falling back to the UNKNOWN entry for unrecognized codes.
func guidanceFor(code string) Guidance {
	if g, ok := guidanceTable[code]; ok {
		return g
	}
	return guidanceTable[CodeUnknown]
}
