package syntax

import "fmt"

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// UnexpectedTokenError reports a token that does not fit the construct
// being parsed. Context names the construct, Expected what would have fit.
type UnexpectedTokenError struct {
	Context    string
	Unexpected string
	Expected   string
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("Unexpected token %s in %s. Expected %s", e.Unexpected, e.Context, e.Expected)
}

// UnexpectedEOFError reports input that ended in the middle of a construct.
type UnexpectedEOFError struct {
	Context  string
	Expected string
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("Unexpected end of file in %s. Expected %s", e.Context, e.Expected)
}
