package stylify

import "fmt"

// InvalidInputError is returned when input is not a text document. Nothing is
// parsed or modified.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// HTMLParseError is returned when markup could not be turned into a tree.
type HTMLParseError struct {
	Err error
}

func (e *HTMLParseError) Error() string {
	return fmt.Sprintf("unable to parse HTML: %v", e.Err)
}

func (e *HTMLParseError) Unwrap() error {
	return e.Err
}
