package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// LabelEncoder maps string class labels to contiguous integer codes.
// Codes are assigned in sorted label order, so "CF" < "EFG" encodes as 0, 1.
type LabelEncoder struct {
	model.BaseEstimator

	classes_ []string
	index    map[string]int
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the distinct labels present in the input.
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[string]bool)
	classes := make([]string, 0)
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Strings(classes)

	e.classes_ = classes
	e.index = make(map[string]int, len(classes))
	for i, class := range classes {
		e.index[class] = i
	}

	e.SetFitted()
	return nil
}

// Transform maps labels to their integer codes. A label not seen during Fit
// is an error.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}

	codes := make([]int, len(labels))
	for i, label := range labels {
		code, ok := e.index[label]
		if !ok {
			return nil, errors.NewValidationError("labels", "label not seen during Fit", label)
		}
		codes[i] = code
	}
	return codes, nil
}

// FitTransform fits the encoder and transforms the same labels.
func (e *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// TransformVector maps labels to codes as a column vector, the form the
// classifier Fit methods take as y.
func (e *LabelEncoder) TransformVector(labels []string) (*mat.VecDense, error) {
	codes, err := e.Transform(labels)
	if err != nil {
		return nil, err
	}
	y := mat.NewVecDense(len(codes), nil)
	for i, code := range codes {
		y.SetVec(i, float64(code))
	}
	return y, nil
}

// InverseTransform maps integer codes back to their labels.
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}

	labels := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(e.classes_) {
			return nil, errors.NewValidationError("codes", "code out of range", code)
		}
		labels[i] = e.classes_[code]
	}
	return labels, nil
}

// Classes returns the learned labels in code order.
func (e *LabelEncoder) Classes() []string {
	classes := make([]string, len(e.classes_))
	copy(classes, e.classes_)
	return classes
}

// NClasses returns the number of distinct labels.
func (e *LabelEncoder) NClasses() int {
	return len(e.classes_)
}
