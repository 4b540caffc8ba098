// Package model fits the estimators used by the dataset pipelines and scores
// them on a held-out split: random forests (classification and regression),
// logistic regression and ordinary least squares.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"
)

// Kind names an estimator.
type Kind string

const (
	RandomForestClassifier Kind = "random_forest_classifier"
	RandomForestRegressor  Kind = "random_forest_regressor"
	LogisticRegression     Kind = "logistic_regression"
	LinearRegression       Kind = "linear_regression"
)

// Classifier reports whether the kind predicts class labels.
func (k Kind) Classifier() bool {
	return k == RandomForestClassifier || k == LogisticRegression
}

// Metric names the score reported by FitAndEvaluate.
type Metric string

const (
	Accuracy Metric = "accuracy"
	MSE      Metric = "mean_squared_error"
)

// Spec selects an estimator and its hyperparameters. Zero values take the
// defaults applied by withDefaults.
type Spec struct {
	Kind            Kind    `yaml:"kind" json:"kind" validate:"required,oneof=random_forest_classifier random_forest_regressor logistic_regression linear_regression"`
	NEstimators     int     `yaml:"n_estimators" json:"n_estimators" validate:"min=0,max=5000"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth" validate:"min=0"`
	MinSamplesSplit int     `yaml:"min_samples_split" json:"min_samples_split" validate:"min=0"`
	MaxFeatures     int     `yaml:"max_features" json:"max_features" validate:"min=0"`
	Seed            int64   `yaml:"seed" json:"seed"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate" validate:"min=0"`
	Epochs          int     `yaml:"epochs" json:"epochs" validate:"min=0"`
	Workers         int     `yaml:"workers" json:"workers" validate:"min=0"`
	// NoBootstrap grows every tree on the full training set.
	NoBootstrap bool `yaml:"no_bootstrap" json:"no_bootstrap"`
}

var validate = validator.New()

// Validate checks the spec's field constraints.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("model spec: %w", err)
	}
	return nil
}

func (s Spec) withDefaults() Spec {
	if s.NEstimators == 0 {
		s.NEstimators = 100
	}
	if s.MinSamplesSplit == 0 {
		s.MinSamplesSplit = 2
	}
	if s.LearningRate == 0 {
		s.LearningRate = 0.1
	}
	if s.Epochs == 0 {
		s.Epochs = 1000
	}
	return s
}

// Result is the outcome of one fit/evaluate round.
type Result struct {
	Kind        Kind          `json:"kind"`
	Metric      Metric        `json:"metric"`
	Score       float64       `json:"score"`
	TrainRows   int           `json:"train_rows"`
	TestRows    int           `json:"test_rows"`
	Duration    time.Duration `json:"duration"`
	Predictions []float64     `json:"-"`
}

func (r *Result) String() string {
	return fmt.Sprintf("%s %s=%.6g (train %d, test %d)", r.Kind, r.Metric, r.Score, r.TrainRows, r.TestRows)
}

// Estimator is implemented by every model in this package. Class labels are
// carried as float64 holding integral values.
type Estimator interface {
	Fit(ctx context.Context, X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

// New builds an unfitted estimator for the spec.
func New(spec Spec) (Estimator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.withDefaults()
	switch spec.Kind {
	case RandomForestClassifier, RandomForestRegressor:
		rf := NewRandomForest(
			WithNEstimators(spec.NEstimators),
			WithBootstrap(!spec.NoBootstrap),
			WithForestSeed(spec.Seed),
			WithForestRegression(spec.Kind == RandomForestRegressor),
			WithWorkers(spec.Workers),
		)
		rf.MaxDepth = spec.MaxDepth
		rf.MinSamplesSplit = spec.MinSamplesSplit
		rf.MaxFeatures = spec.MaxFeatures
		return rf, nil
	case LogisticRegression:
		return &Logistic{LearningRate: spec.LearningRate, Epochs: spec.Epochs}, nil
	case LinearRegression:
		return &OLS{}, nil
	}
	return nil, fmt.Errorf("unknown model kind %q", spec.Kind)
}

// FitAndEvaluate fits the estimator on the training data and scores its
// predictions on the test data: accuracy for classifiers, mean squared error
// for regressors.
func FitAndEvaluate(ctx context.Context, spec Spec, trainX mat.Matrix, trainY []float64, testX mat.Matrix, testY []float64) (*Result, error) {
	if err := checkShape("train", trainX, trainY); err != nil {
		return nil, err
	}
	if err := checkShape("test", testX, testY); err != nil {
		return nil, err
	}
	if _, tc := trainX.Dims(); tc != colsOf(testX) {
		return nil, fmt.Errorf("train has %d features, test has %d", tc, colsOf(testX))
	}
	est, err := New(spec)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := est.Fit(ctx, trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit %s: %w", spec.Kind, err)
	}
	pred, err := est.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", spec.Kind, err)
	}
	res := &Result{
		Kind:        spec.Kind,
		TrainRows:   len(trainY),
		TestRows:    len(testY),
		Predictions: pred,
	}
	if spec.Kind.Classifier() {
		res.Metric = Accuracy
		res.Score = AccuracyScore(testY, pred)
	} else {
		res.Metric = MSE
		res.Score = MeanSquaredError(testY, pred)
	}
	res.Duration = time.Since(start)
	slog.Debug("model evaluated",
		slog.String("kind", string(spec.Kind)),
		slog.String("metric", string(res.Metric)),
		slog.Float64("score", res.Score),
		slog.Duration("took", res.Duration))
	return res, nil
}

func checkShape(name string, X mat.Matrix, y []float64) error {
	if X == nil {
		return fmt.Errorf("%s features: nil matrix", name)
	}
	r, _ := X.Dims()
	if r == 0 {
		return fmt.Errorf("%s set is empty", name)
	}
	if r != len(y) {
		return fmt.Errorf("%s features have %d rows, target has %d", name, r, len(y))
	}
	return nil
}

func colsOf(X mat.Matrix) int {
	_, c := X.Dims()
	return c
}
