// Package metrics provides evaluation metrics for classification,
// ranking and clustering models.
package metrics

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// logLossEpsilon clips probabilities away from 0 and 1 before taking logs.
const logLossEpsilon = 1e-15

// Accuracy returns the fraction of predictions equal to the true labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("Accuracy", "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError returns the misclassification rate, 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// BinaryLogLoss returns the cross-entropy between binary labels and
// predicted positive-class probabilities. Probabilities are clipped to
// [eps, 1-eps] so exact 0 and 1 predictions stay finite.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("BinaryLogLoss", "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("BinaryLogLoss", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be 0 or 1")
		}
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if y == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// LogLoss returns the multiclass cross-entropy of predicted class
// probabilities. proba has one column per entry of classes, in order;
// yTrue holds class codes drawn from classes.
func LogLoss(yTrue *mat.VecDense, proba mat.Matrix, classes []float64) (float64, error) {
	if yTrue == nil || proba == nil {
		return 0, errors.NewValueError("LogLoss", "nil input")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	r, c := proba.Dims()
	if r != n {
		return 0, errors.NewDimensionError("LogLoss", n, r, 0)
	}
	if c != len(classes) {
		return 0, errors.NewDimensionError("LogLoss", len(classes), c, 1)
	}

	index := make(map[float64]int, len(classes))
	for j, class := range classes {
		index[class] = j
	}

	var sum float64
	for i := 0; i < n; i++ {
		j, ok := index[yTrue.AtVec(i)]
		if !ok {
			return 0, errors.NewValueError("LogLoss", "label not present in classes")
		}
		p := errors.ClipValue(proba.At(i, j), logLossEpsilon, 1-logLossEpsilon)
		sum -= math.Log(p)
	}
	return sum / float64(n), nil
}

// ConfusionMatrix tallies predictions against true labels. Rows index the
// true label, columns the predicted label, both in Labels order.
type ConfusionMatrix struct {
	Labels []float64
	Counts [][]int
}

// NewConfusionMatrix builds a confusion matrix over the union of labels
// seen in yTrue and yPred, sorted ascending.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	if yTrue == nil || yPred == nil {
		return nil, errors.NewValueError("ConfusionMatrix", "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	seen := make(map[float64]bool)
	var labels []float64
	for i := 0; i < n; i++ {
		for _, v := range []float64{yTrue.AtVec(i), yPred.AtVec(i)} {
			if !seen[v] {
				seen[v] = true
				labels = append(labels, v)
			}
		}
	}
	sort.Float64s(labels)

	index := make(map[float64]int, len(labels))
	for j, label := range labels {
		index[label] = j
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := 0; i < n; i++ {
		counts[index[yTrue.AtVec(i)]][index[yPred.AtVec(i)]]++
	}

	return &ConfusionMatrix{Labels: labels, Counts: counts}, nil
}

// Total returns the number of observations tallied.
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Accuracy returns the fraction of observations on the diagonal.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	diag := 0
	for i := range cm.Counts {
		diag += cm.Counts[i][i]
	}
	return float64(diag) / float64(total)
}

// Table renders the matrix as a table with a truth column and one count
// column per predicted label. classNames substitutes display names for
// the numeric labels; nil falls back to the codes.
func (cm *ConfusionMatrix) Table(classNames []string) (*dataset.Table, error) {
	if classNames == nil {
		classNames = make([]string, len(cm.Labels))
		for i, label := range cm.Labels {
			classNames[i] = strconv.FormatFloat(label, 'g', -1, 64)
		}
	}
	if len(classNames) != len(cm.Labels) {
		return nil, errors.NewDimensionError("ConfusionMatrix.Table", len(cm.Labels), len(classNames), 0)
	}

	cols := make([]dataset.Column, 0, len(cm.Labels)+1)
	cols = append(cols, dataset.NewStringColumn("truth", classNames))
	for j, name := range classNames {
		vals := make([]float64, len(cm.Labels))
		for i := range cm.Labels {
			vals[i] = float64(cm.Counts[i][j])
		}
		cols = append(cols, dataset.NewFloatColumn("pred_"+name, vals))
	}
	return dataset.NewTable(cols...)
}

// ClassScores holds per-class precision, recall and F1 along with the
// class support in the true labels.
type ClassScores struct {
	Label     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PrecisionRecall computes precision, recall and F1 for every label in
// the confusion of yTrue and yPred. A class never predicted has
// precision 0 and a class absent from yTrue has recall 0; both raise an
// UndefinedMetricWarning.
func PrecisionRecall(yTrue, yPred *mat.VecDense) ([]ClassScores, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	scores := make([]ClassScores, len(cm.Labels))
	for i, label := range cm.Labels {
		tp := cm.Counts[i][i]
		predicted, actual := 0, 0
		for j := range cm.Labels {
			predicted += cm.Counts[j][i]
			actual += cm.Counts[i][j]
		}

		precision := 0.0
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples for a class", 0))
		}
		recall := 0.0
		if actual > 0 {
			recall = float64(tp) / float64(actual)
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true samples for a class", 0))
		}
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		scores[i] = ClassScores{
			Label:     label,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   actual,
		}
	}
	return scores, nil
}
