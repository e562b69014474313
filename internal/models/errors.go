package models

import (
	"errors"
	"fmt"
)

// Not-found sentinels. Repositories wrap these so that callers can tell a
// missing update/delete target apart from an unresolvable item token.
var (
	ErrClientNotFound  = errors.New("client not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ResolutionError reports that an order item's product token matched no
// product by identity, internal code, SKU or alternate code. It carries the
// offending token for diagnostics.
type ResolutionError struct {
	Token string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("product token %q matched no product", e.Token)
}

// AmbiguousTokenError reports that a token matched more than one product
// across the equivalence fields. Equivalence-field uniqueness is not enforced
// by the schema, so this can happen with inconsistent catalog data; the order
// is rejected rather than picking an arbitrary match.
type AmbiguousTokenError struct {
	Token   string
	Matches int
}

func (e *AmbiguousTokenError) Error() string {
	return fmt.Sprintf("product token %q matched %d products", e.Token, e.Matches)
}
