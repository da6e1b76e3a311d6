package processors

import (
	"sort"

	"github.com/username/easysplit/backend/src/models"
)

// nettingReducerImpl implements the NettingReducer interface.
type nettingReducerImpl struct{}

// NewNettingReducer creates a new instance of NettingReducer.
func NewNettingReducer() NettingReducer {
	return &nettingReducerImpl{}
}

// Net builds the dense debtor-by-creditor matrix over the sorted
// participant list and cancels each pair's mutual debts. At most one
// direction survives per pair; residuals at or below the epsilon are
// settled. Transfers come out in row-major order of the sorted names, so
// identical inputs always produce the identical plan.
func (r *nettingReducerImpl) Net(debts *models.DebtMatrix, participants []string) ([][]float64, []models.NetTransfer) {
	names := make([]string, len(participants))
	copy(names, participants)
	sort.Strings(names)

	matrix := make([][]float64, len(names))
	for i := range matrix {
		matrix[i] = make([]float64, len(names))
	}

	transfers := []models.NetTransfer{}
	for i, debtor := range names {
		for j, creditor := range names {
			if i == j {
				continue
			}
			net := debts.Amount(debtor, creditor) - debts.Amount(creditor, debtor)
			if net > settleEpsilon {
				matrix[i][j] = net
				transfers = append(transfers, models.NetTransfer{
					From:   debtor,
					To:     creditor,
					Amount: net,
				})
			}
		}
	}

	return matrix, transfers
}
