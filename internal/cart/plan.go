package cart

import (
	"math"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Action is the write a cart mutation resolves to.
type Action string

const (
	// ActionCreate creates the cart resource with its first line.
	ActionCreate Action = "create"
	// ActionUpdate sets a line's absolute quantity on an existing cart.
	ActionUpdate Action = "update"
	// ActionDelete removes a line.
	ActionDelete Action = "delete"
)

// State is what the server reported about the cart before a mutation.
type State struct {
	ProductID  string
	CartExists bool
	// Quantity is the product's current line quantity, 0 when absent.
	Quantity int
}

// Step is a planned write.
type Step struct {
	Action   Action
	Quantity int
}

// Plan decides how adding n units of a product is written. Creation is
// chosen only when no cart resource exists; an existing cart always gets an
// absolute quantity update, whether or not the line is already present.
func Plan(state State, stock, n int) (Step, error) {
	if n < 1 {
		return Step{}, apperrors.InvalidInput("quantity must be at least 1")
	}
	// Compared without summing so a huge n cannot wrap around.
	if n > stock-state.Quantity {
		requested := state.Quantity + n
		if requested < state.Quantity {
			requested = math.MaxInt
		}
		return Step{}, apperrors.InsufficientStock(state.ProductID, requested, max(stock, 0))
	}
	target := state.Quantity + n
	if !state.CartExists {
		return Step{Action: ActionCreate, Quantity: n}, nil
	}
	return Step{Action: ActionUpdate, Quantity: target}, nil
}

// PlanDecrement decides how taking one unit off a line is written. A line
// at one unit or less is removed.
func PlanDecrement(quantity int) Step {
	if quantity <= 1 {
		return Step{Action: ActionDelete}
	}
	return Step{Action: ActionUpdate, Quantity: quantity - 1}
}
