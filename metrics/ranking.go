package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Curve holds one receiver operating characteristic: parallel FPR and TPR
// coordinates with the score threshold that produced each point,
// thresholds descending. The first point is (0, 0) at threshold +Inf and
// the last is (1, 1).
type Curve struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
}

type scoredLabel struct {
	score float64
	label float64
}

// binaryScored validates a binary classification input pair and returns
// the observations sorted by score descending, with the positive and
// negative counts.
func binaryScored(op string, yTrue, yPred *mat.VecDense) ([]scoredLabel, int, int, error) {
	if yTrue == nil || yPred == nil {
		return nil, 0, 0, errors.NewValueError(op, "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, 0, 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, 0, 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	pairs := make([]scoredLabel, n)
	pos, neg := 0, 0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		switch label {
		case 1:
			pos++
		case 0:
			neg++
		default:
			return nil, 0, 0, errors.NewValueError(op, "labels must be 0 or 1")
		}
		pairs[i] = scoredLabel{score: yPred.AtVec(i), label: label}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	return pairs, pos, neg, nil
}

// ROCCurve computes the ROC curve of binary labels against scores. Tied
// scores collapse into a single threshold point. yTrue must contain both
// classes.
func ROCCurve(yTrue, score *mat.VecDense) (*Curve, error) {
	pairs, pos, neg, err := binaryScored("ROCCurve", yTrue, score)
	if err != nil {
		return nil, err
	}
	if pos == 0 || neg == 0 {
		return nil, errors.NewValueError("ROCCurve", "yTrue must contain both classes")
	}

	curve := &Curve{
		FPR:        []float64{0},
		TPR:        []float64{0},
		Thresholds: []float64{math.Inf(1)},
	}
	tp, fp := 0, 0
	for i := 0; i < len(pairs); {
		threshold := pairs[i].score
		for i < len(pairs) && pairs[i].score == threshold {
			if pairs[i].label == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve.FPR = append(curve.FPR, float64(fp)/float64(neg))
		curve.TPR = append(curve.TPR, float64(tp)/float64(pos))
		curve.Thresholds = append(curve.Thresholds, threshold)
	}
	return curve, nil
}

// AUC returns the area under the ROC curve by trapezoidal integration,
// with tied scores grouped. When yTrue holds a single class the metric is
// undefined; 0.5 is returned and an UndefinedMetricWarning raised.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	pairs, pos, neg, err := binaryScored("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if pos == 0 || neg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	area := 0.0
	tp, fp := 0, 0
	prevTPR, prevFPR := 0.0, 0.0
	for i := 0; i < len(pairs); {
		threshold := pairs[i].score
		for i < len(pairs) && pairs[i].score == threshold {
			if pairs[i].label == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		fpr := float64(fp) / float64(neg)
		tpr := float64(tp) / float64(pos)
		area += (fpr - prevFPR) * (tpr + prevTPR) / 2
		prevFPR, prevTPR = fpr, tpr
	}
	return area, nil
}

// AUCMatrix computes AUC on matrix inputs, using the first column of
// each.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil input matrix")
	}
	rTrue, cTrue := yTrue.Dims()
	rPred, _ := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rPred, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rTrue, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}
	return AUC(yTrueVec, yPredVec)
}

// MacroAUC returns the unweighted mean of the one-vs-rest AUCs over the
// given classes. proba has one column per entry of classes, in order,
// and yTrue holds class codes drawn from classes.
func MacroAUC(yTrue *mat.VecDense, proba mat.Matrix, classes []float64) (float64, error) {
	if yTrue == nil || proba == nil {
		return 0, errors.NewValueError("MacroAUC", "nil input")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MacroAUC", "empty vector")
	}
	r, c := proba.Dims()
	if r != n {
		return 0, errors.NewDimensionError("MacroAUC", n, r, 0)
	}
	if c != len(classes) {
		return 0, errors.NewDimensionError("MacroAUC", len(classes), c, 1)
	}
	if len(classes) == 0 {
		return 0, errors.NewValueError("MacroAUC", "no classes given")
	}

	sum := 0.0
	yBin := mat.NewVecDense(n, nil)
	score := mat.NewVecDense(n, nil)
	for j, class := range classes {
		for i := 0; i < n; i++ {
			if yTrue.AtVec(i) == class {
				yBin.SetVec(i, 1)
			} else {
				yBin.SetVec(i, 0)
			}
			score.SetVec(i, proba.At(i, j))
		}
		auc, err := AUC(yBin, score)
		if err != nil {
			return 0, err
		}
		sum += auc
	}
	return sum / float64(len(classes)), nil
}
