package errs

import "fmt"

// GatewayError wraps failures from an external collaborator (LLM backend,
// retrieval index, web search provider). It is never retried automatically;
// callers decide.
type GatewayError struct {
	Op  string // which gateway call failed, e.g. "llm.chat", "retrieval.search"
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error in %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Gateway wraps err as a GatewayError for the given operation.
func Gateway(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}

// RoutingError signals pipeline desynchronization: the tool router saw a
// turn that is not a tool result, or a tool name it does not know.
// Fatal for the current cycle, distinguishable from gateway failures so
// callers can decide whether a retry makes sense.
type RoutingError struct {
	Reason   string
	ToolName string
}

func (e *RoutingError) Error() string {
	if e.ToolName != "" {
		return fmt.Sprintf("routing error: %s (tool: %s)", e.Reason, e.ToolName)
	}
	return fmt.Sprintf("routing error: %s", e.Reason)
}

// ConfigurationError signals a failed build of a runtime component
// (vector store, embedding provider, LLM provider). Construction is
// all-or-nothing: a half-initialized gateway is never exposed.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationError signals malformed structured output from the model
// (e.g. a grading verdict that is neither "yes" nor "no"). No default
// verdict is ever assumed in its place.
type ValidationError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %q: %v (raw: %.80s)", e.Field, e.Err, e.Raw)
	}
	return fmt.Sprintf("validation error: %v (raw: %.80s)", e.Err, e.Raw)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
