package serrors

// Base is an error with a stable machine-readable code. The message is what
// operators see; Hint carries optional remediation text.
type Base struct {
	Code    string
	Message string
	Hint    string
}

func (e *Base) Error() string {
	return e.Message
}

func NewError(code, message, hint string) *Base {
	return &Base{Code: code, Message: message, Hint: hint}
}

// Code extracts the code from err when it is a *Base, otherwise "".
func Code(err error) string {
	if b, ok := err.(*Base); ok {
		return b.Code
	}
	return ""
}
