package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticAvailability struct {
	candidates map[string][]Availability
}

func (s staticAvailability) Candidates(ctx context.Context, tenantID, productID string) ([]Availability, error) {
	return s.candidates[productID], nil
}

func TestAssignBranchPicksFirstWithStock(t *testing.T) {
	r := NewResolver(staticAvailability{candidates: map[string][]Availability{
		"p1": {
			{BranchID: "b1", Priority: 1, Stock: 2},
			{BranchID: "b2", Priority: 2, Stock: 10},
			{BranchID: "b3", Priority: 3, Stock: 10},
		},
	}})

	chosen, err := r.AssignBranch(context.Background(), "t1", OrderItem{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, "b2", chosen.BranchID)
}

func TestAssignBranchIsDeterministic(t *testing.T) {
	r := NewResolver(staticAvailability{candidates: map[string][]Availability{
		"p1": {
			{BranchID: "b1", Priority: 1, Stock: 10},
			{BranchID: "b2", Priority: 1, Stock: 10},
		},
	}})

	for i := 0; i < 10; i++ {
		chosen, err := r.AssignBranch(context.Background(), "t1", OrderItem{ProductID: "p1", Quantity: 1})
		require.NoError(t, err)
		require.Equal(t, "b1", chosen.BranchID)
	}
}

func TestAssignBranchExhaustsCandidates(t *testing.T) {
	r := NewResolver(staticAvailability{candidates: map[string][]Availability{
		"p1": {
			{BranchID: "b1", Priority: 1, Stock: 1},
			{BranchID: "b2", Priority: 2, Stock: 2},
		},
	}})

	_, err := r.AssignBranch(context.Background(), "t1", OrderItem{ProductID: "p1", Quantity: 3})
	require.ErrorIs(t, err, ErrStockUnavailable)

	var unavailable *StockUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "p1", unavailable.ProductID)
}

func TestAssignBranchNoCandidates(t *testing.T) {
	r := NewResolver(staticAvailability{candidates: map[string][]Availability{}})
	_, err := r.AssignBranch(context.Background(), "t1", OrderItem{ProductID: "p1", Quantity: 1})
	require.ErrorIs(t, err, ErrStockUnavailable)
}
