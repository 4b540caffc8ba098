package table

import (
	"math"
	"math/rand"
)

// TrainTestSplit partitions t into disjoint train and test tables after a
// seeded shuffle. The test side gets ceil(testFraction*n) rows; both sides
// are in shuffled order. The target column must exist.
func TrainTestSplit(t *Table, target string, testFraction float64, seed int64) (train, test *Table, err error) {
	if t == nil {
		return nil, nil, ErrNilTable
	}
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, &SplitParameterError{Fraction: testFraction}
	}
	if target != "" && !t.Has(target) {
		return nil, nil, &ColumnNotFoundError{Name: target}
	}
	perm := rand.New(rand.NewSource(seed)).Perm(t.rows)
	// The epsilon keeps 0.3*10 from rounding up to 4.
	nTest := int(math.Ceil(testFraction*float64(t.rows) - 1e-9))
	if nTest > t.rows {
		nTest = t.rows
	}
	return t.take(perm[nTest:]), t.take(perm[:nTest]), nil
}
