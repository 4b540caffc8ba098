package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DecisionTree is a CART tree. Classification trees split on Gini impurity
// and predict the majority class of a leaf; regression trees split on the
// sum of squared errors and predict the leaf mean.
type DecisionTree struct {
	MaxDepth            int // 0 => unlimited
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MaxFeatures         int // 0 => all features
	MinImpurityDecrease float64
	RandomState         int64
	Regression          bool

	root    *treeNode
	classes []float64
	nFeat   int
	rnd     *rand.Rand
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *treeNode
	right     *treeNode
	value     float64
	n         int
}

// TreeOption configures a DecisionTree.
type TreeOption func(*DecisionTree)

func WithMaxDepth(d int) TreeOption          { return func(t *DecisionTree) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption   { return func(t *DecisionTree) { t.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) TreeOption    { return func(t *DecisionTree) { t.MinSamplesLeaf = n } }
func WithMaxFeatures(k int) TreeOption       { return func(t *DecisionTree) { t.MaxFeatures = k } }
func WithRandomState(seed int64) TreeOption  { return func(t *DecisionTree) { t.RandomState = seed } }
func WithRegression(enabled bool) TreeOption { return func(t *DecisionTree) { t.Regression = enabled } }

// NewDecisionTree returns a classification tree unless WithRegression is given.
func NewDecisionTree(opts ...TreeOption) *DecisionTree {
	t := &DecisionTree{MinSamplesSplit: 2, MinSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on every row of X.
func (t *DecisionTree) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	rows := denseRows(X)
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	return t.fitRows(ctx, rows, y, idx)
}

func (t *DecisionTree) fitRows(ctx context.Context, rows [][]float64, y []float64, idx []int) error {
	if len(rows) == 0 || len(idx) == 0 {
		return ErrNoRows
	}
	if len(rows) != len(y) {
		return fmt.Errorf("features have %d rows, target has %d", len(rows), len(y))
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	t.nFeat = len(rows[0])
	t.rnd = rand.New(rand.NewSource(t.RandomState))
	g := &grower{tree: t, rows: rows, y: y}
	if !t.Regression {
		t.classes = distinctLabels(y)
		g.label = make([]int, len(y))
		pos := make(map[float64]int, len(t.classes))
		for i, c := range t.classes {
			pos[c] = i
		}
		for i, v := range y {
			g.label[i] = pos[v]
		}
	}
	root, err := g.build(ctx, idx, 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// Predict returns one prediction per row of X.
func (t *DecisionTree) Predict(X mat.Matrix) ([]float64, error) {
	if t.root == nil {
		return nil, errors.New("tree is not fitted")
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != t.nFeat {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(r), t.nFeat)
		}
		out[i] = t.predictRow(r)
	}
	return out, nil
}

func (t *DecisionTree) predictRow(r []float64) float64 {
	n := t.root
	for !n.leaf {
		if r[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Depth reports the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTree) Depth() int { return depth(t.root) }

func depth(n *treeNode) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

type grower struct {
	tree  *DecisionTree
	rows  [][]float64
	y     []float64
	label []int // class index per sample (classification)
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (g *grower) build(ctx context.Context, idx []int, d int) (*treeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := g.tree
	node := &treeNode{leaf: true, n: len(idx), value: g.leafValue(idx)}
	if t.MaxDepth > 0 && d >= t.MaxDepth {
		return node, nil
	}
	if len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf {
		return node, nil
	}
	parent := g.impurity(idx)
	if parent <= 1e-12 {
		return node, nil
	}
	best := split{feature: -1}
	for _, f := range g.candidates() {
		s, ok := g.bestSplit(idx, f, parent)
		if ok && s.gain > best.gain {
			best = s
		}
	}
	if best.feature < 0 || best.gain <= t.MinImpurityDecrease+1e-12 {
		return node, nil
	}
	var left, right []int
	for _, i := range idx {
		if g.rows[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l, err := g.build(ctx, left, d+1)
	if err != nil {
		return nil, err
	}
	r, err := g.build(ctx, right, d+1)
	if err != nil {
		return nil, err
	}
	node.leaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.left, node.right = l, r
	return node, nil
}

// candidates returns the features examined at a node: all of them, or a
// random subset of MaxFeatures drawn from the tree's source.
func (g *grower) candidates() []int {
	p := g.tree.nFeat
	k := g.tree.MaxFeatures
	if k <= 0 || k >= p {
		all := make([]int, p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return g.tree.rnd.Perm(p)[:k]
}

func (g *grower) bestSplit(idx []int, f int, parent float64) (split, bool) {
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(a, b int) bool { return g.rows[order[a]][f] < g.rows[order[b]][f] })
	n := len(order)
	minLeaf := g.tree.MinSamplesLeaf
	best := split{feature: -1}

	if g.tree.Regression {
		var totSum, totSq float64
		for _, i := range order {
			totSum += g.y[i]
			totSq += g.y[i] * g.y[i]
		}
		var lSum, lSq float64
		for k := 0; k < n-1; k++ {
			v := g.y[order[k]]
			lSum += v
			lSq += v * v
			nl, nr := k+1, n-k-1
			x, next := g.rows[order[k]][f], g.rows[order[k+1]][f]
			if x == next || nl < minLeaf || nr < minLeaf {
				continue
			}
			child := sse(lSum, lSq, nl) + sse(totSum-lSum, totSq-lSq, nr)
			if gain := parent - child; gain > best.gain {
				best = split{feature: f, threshold: (x + next) / 2, gain: gain}
			}
		}
		return best, best.feature >= 0
	}

	k := len(g.tree.classes)
	right := make([]int, k)
	for _, i := range order {
		right[g.label[i]]++
	}
	left := make([]int, k)
	for j := 0; j < n-1; j++ {
		c := g.label[order[j]]
		left[c]++
		right[c]--
		nl, nr := j+1, n-j-1
		x, next := g.rows[order[j]][f], g.rows[order[j+1]][f]
		if x == next || nl < minLeaf || nr < minLeaf {
			continue
		}
		child := giniTotal(left, nl) + giniTotal(right, nr)
		if gain := parent - child; gain > best.gain {
			best = split{feature: f, threshold: (x + next) / 2, gain: gain}
		}
	}
	return best, best.feature >= 0
}

// impurity is the node's total impurity: n*gini or the sum of squared errors.
func (g *grower) impurity(idx []int) float64 {
	if g.tree.Regression {
		var s, sq float64
		for _, i := range idx {
			s += g.y[i]
			sq += g.y[i] * g.y[i]
		}
		return sse(s, sq, len(idx))
	}
	counts := make([]int, len(g.tree.classes))
	for _, i := range idx {
		counts[g.label[i]]++
	}
	return giniTotal(counts, len(idx))
}

func (g *grower) leafValue(idx []int) float64 {
	if g.tree.Regression {
		var s float64
		for _, i := range idx {
			s += g.y[i]
		}
		return s / float64(len(idx))
	}
	counts := make([]int, len(g.tree.classes))
	for _, i := range idx {
		counts[g.label[i]]++
	}
	return g.tree.classes[argmax(counts)]
}

func sse(sum, sq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	v := sq - sum*sum/float64(n)
	if v < 0 {
		return 0
	}
	return v
}

func giniTotal(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	var s float64
	for _, c := range counts {
		s += float64(c) * float64(c)
	}
	return float64(n) - s/float64(n)
}

// argmax returns the first index holding the largest count.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func distinctLabels(y []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func denseRows(X mat.Matrix) [][]float64 {
	if X == nil {
		return nil
	}
	r, c := X.Dims()
	rows := make([][]float64, r)
	if d, ok := X.(mat.RawRowViewer); ok {
		for i := range rows {
			rows[i] = d.RawRowView(i)
		}
		return rows
	}
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = X.At(i, j)
		}
	}
	return rows
}
