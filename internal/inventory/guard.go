// Package inventory keeps the nurse's view of medication stock and the
// guard that stops a quantity field from asking for more than is on hand.
//
// The guard is advisory. The backend validates stock on every
// administration and its answer wins.
package inventory

import (
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/samber/lo"
)

// Result is the outcome of Clamp.
type Result struct {
	// Quantity is the value the form should show.
	Quantity int

	// ExceedsStock is set when the requested value was cut down to stock.
	ExceedsStock bool

	// Managed is false when no inventory item matched the name, i.e. a
	// custom medication brought from home.
	Managed bool

	// Available is the on-hand quantity of the matched item.
	Available int
}

// Clamp limits requested to the stock of the item named exactly name.
//
// Requests below 1 are raised to 1. For a managed medication the result
// never exceeds stock either, and that cap wins over the floor: with no
// stock on hand the result is 0 (with ExceedsStock set), not 1.
// Unknown names are only floored.
func Clamp(name string, requested int, items []types.MedicationInventoryItem) Result {
	qty := max(requested, 1)

	item, ok := lo.Find(items, func(it types.MedicationInventoryItem) bool {
		return it.MedicationName == name
	})
	if !ok {
		return Result{Quantity: qty}
	}

	res := Result{Quantity: qty, Managed: true, Available: item.Quantity}
	if qty > item.Quantity {
		res.Quantity = max(item.Quantity, 0)
		res.ExceedsStock = true
	}
	return res
}
