package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RandomForest is a bagged ensemble of CART trees. Tree i draws its
// bootstrap sample and feature subsets from RandomState+i, so a fitted
// forest does not depend on goroutine scheduling.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 => sqrt(p) for classification, p for regression
	Bootstrap       bool
	RandomState     int64
	Regression      bool
	Workers         int // 0 => GOMAXPROCS

	Trees []*DecisionTree
}

// RandomForestOption configures a RandomForest.
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption  { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption   { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestSeed(s int64) RandomForestOption { return func(rf *RandomForest) { rf.RandomState = s } }
func WithWorkers(n int) RandomForestOption      { return func(rf *RandomForest) { rf.Workers = n } }
func WithForestRegression(b bool) RandomForestOption {
	return func(rf *RandomForest) { rf.Regression = b }
}

// NewRandomForest returns a 100-tree bootstrapped classifier unless the
// options say otherwise.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{NEstimators: 100, MinSamplesSplit: 2, Bootstrap: true}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit grows NEstimators trees concurrently.
func (rf *RandomForest) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	rows := denseRows(X)
	n := len(rows)
	if n == 0 {
		return ErrNoRows
	}
	if len(y) != n {
		return fmt.Errorf("randomforest: %d rows but %d targets", n, len(y))
	}
	if rf.NEstimators <= 0 {
		return errors.New("randomforest: NEstimators must be positive")
	}
	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 && !rf.Regression {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(len(rows[0]))))))
	}
	workers := rf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*DecisionTree, rf.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			seed := rf.RandomState + int64(i)
			rnd := rand.New(rand.NewSource(seed))
			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = rnd.Intn(n)
				} else {
					sample[j] = j
				}
			}
			tree := NewDecisionTree(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMaxFeatures(maxFeatures),
				WithRandomState(seed),
				WithRegression(rf.Regression),
			)
			if err := tree.fitRows(gctx, rows, y, sample); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// Predict averages the trees for regression and takes a majority vote for
// classification; ties go to the smallest label.
func (rf *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("randomforest: not fitted")
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != rf.Trees[0].nFeat {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(r), rf.Trees[0].nFeat)
		}
		if rf.Regression {
			var s float64
			for _, t := range rf.Trees {
				s += t.predictRow(r)
			}
			out[i] = s / float64(len(rf.Trees))
			continue
		}
		votes := make(map[float64]int)
		for _, t := range rf.Trees {
			votes[t.predictRow(r)]++
		}
		best, bestN := math.Inf(1), -1
		for label, c := range votes {
			if c > bestN || (c == bestN && label < best) {
				best, bestN = label, c
			}
		}
		out[i] = best
	}
	return out, nil
}
