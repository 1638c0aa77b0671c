package lapped

import "github.com/tphakala/go-mdct/internal/polymat"

// Delay builds the analysis delay matrix D and its synthesis counterpart Dinv
// for n bands.
//
//	D    = diag(1 … 1, z⁻¹ … z⁻¹)   second half of the bands delayed one block
//	Dinv = diag(z⁻¹ … z⁻¹, 1 … 1)   first half delayed one block
//
// This orientation joins the folded halves of the current and previous
// blocks so that each synthesis basis function is the windowed MDCT cosine
// over its 2N-sample support. Dinv is not a numerical inverse of D (a causal
// delay has none); the pair satisfies D·Dinv = z⁻¹·I, a one-block system
// delay independent of the signal length.
func Delay(n int) (d, dinv *polymat.Matrix, err error) {
	if err := ValidateBands(n); err != nil {
		return nil, nil, err
	}

	h := n / 2
	db, err := polymat.NewBuilder(n, n, 2)
	if err != nil {
		return nil, nil, err
	}
	ib, err := polymat.NewBuilder(n, n, 2)
	if err != nil {
		return nil, nil, err
	}

	for i := range h {
		db.Set(i, i, 0, 1)
		ib.Set(i, i, 1, 1)
	}
	for i := h; i < n; i++ {
		db.Set(i, i, 1, 1)
		ib.Set(i, i, 0, 1)
	}
	return db.Build(), ib.Build(), nil
}
