package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/models"
)

// MissingRateError reports every currency that carries debt but has no
// entry in the rate table. Codes are sorted for stable messages.
type MissingRateError struct {
	Base  string
	Codes []string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no conversion rate to %s for: %s", e.Base, strings.Join(e.Codes, ", "))
}

// currencyNormalizerImpl implements the CurrencyNormalizer interface.
type currencyNormalizerImpl struct {
	missingPolicy MissingRatePolicy
}

// NewCurrencyNormalizer creates a normalizer with the given missing-rate
// policy. An unrecognised policy behaves like MissingRateFail.
func NewCurrencyNormalizer(missingPolicy MissingRatePolicy) CurrencyNormalizer {
	return &currencyNormalizerImpl{missingPolicy: missingPolicy}
}

// Normalize converts each per-currency matrix into the base currency and
// folds them into one. Currencies are visited in sorted order so edge
// accumulation is deterministic run to run.
func (n *currencyNormalizerImpl) Normalize(byCurrency map[string]*models.DebtMatrix, rates models.RateTable) (*models.DebtMatrix, error) {
	currencies := make([]string, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	var missing []string
	for _, c := range currencies {
		if _, ok := rates.Factor(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		if n.missingPolicy != MissingRateAssumeBase {
			return nil, &MissingRateError{Base: rates.Base, Codes: missing}
		}
		for _, c := range missing {
			if logger.L != nil {
				logger.L.Warn("No rate for currency, converting 1:1 into base",
					"currency", c,
					"base", rates.Base)
			}
		}
	}

	base := models.NewDebtMatrix()
	for _, c := range currencies {
		factor, ok := rates.Factor(c)
		if !ok {
			factor = 1.0 // assume-base policy
		}
		matrix := byCurrency[c]
		for _, pair := range matrix.Pairs() {
			base.Add(pair.Debtor, pair.Creditor, matrix.Amount(pair.Debtor, pair.Creditor)*factor)
		}
	}

	return base, nil
}
