package orders

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationError reports malformed or incomplete submit input. The
// caller re-prompts; nothing was committed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductNotFoundError reports a line whose product no longer exists in
// the live catalog (or was deactivated since the cart was built).
type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

// TransactionAbortError wraps a transient failure of the atomic commit
// itself: the store was unreachable or a concurrent commit won the
// conflict. The caller may retry; the core never retries implicitly.
type TransactionAbortError struct {
	Err error
}

func (e TransactionAbortError) Error() string {
	return fmt.Sprintf("order commit aborted: %v", e.Err)
}

func (e TransactionAbortError) Unwrap() error { return e.Err }
