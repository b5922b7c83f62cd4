package orders

import "context"

// Availability is one branch's standing for a product: its assignment
// priority, current stock and local sale price.
type Availability struct {
	BranchID  string
	Priority  int
	Stock     int64
	SalePrice float64
}

// AvailabilityPort lists candidate branches for a product. Only active
// e-commerce source branches qualify, ordered by priority ascending with
// branch id as tiebreak, so the walk below is deterministic.
type AvailabilityPort interface {
	Candidates(ctx context.Context, tenantID, productID string) ([]Availability, error)
}

// Resolver picks the branch an online order ships from.
type Resolver struct {
	availability AvailabilityPort
}

// NewResolver constructs Resolver.
func NewResolver(availability AvailabilityPort) *Resolver {
	return &Resolver{availability: availability}
}

// AssignBranch walks candidate branches in priority order and returns the
// first one holding enough stock for the item. The first line item of an
// order decides the branch for the whole order; remaining items are
// fulfilled from the same branch or the order fails.
func (r *Resolver) AssignBranch(ctx context.Context, tenantID string, item OrderItem) (Availability, error) {
	candidates, err := r.availability.Candidates(ctx, tenantID, item.ProductID)
	if err != nil {
		return Availability{}, err
	}
	for _, c := range candidates {
		if c.Stock >= item.Quantity {
			return c, nil
		}
	}
	return Availability{}, &StockUnavailableError{ProductID: item.ProductID}
}
