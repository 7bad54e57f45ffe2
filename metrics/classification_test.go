package metrics

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:  1.0,
		},
		{
			name:  "Worst classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:  0.0,
		},
		{
			name:  "Random classifier",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.5,
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.75,
		},
		{
			name:  "All positive labels",
			yTrue: []float64{1, 1, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:  "All negative labels",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := AUC(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUC() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   mat.Matrix
		yPred   mat.Matrix
		want    float64
		wantErr bool
	}{
		{
			name:  "Matrix input",
			yTrue: mat.NewDense(4, 1, []float64{0, 0, 1, 1}),
			yPred: mat.NewDense(4, 1, []float64{0.1, 0.4, 0.35, 0.8}),
			want:  0.75,
		},
		{
			name:  "Multi-column matrix (uses first column)",
			yTrue: mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
			yPred: mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}),
			want:  0.75,
		},
		{
			name:    "Nil matrix",
			yTrue:   nil,
			yPred:   mat.NewDense(1, 1, []float64{0.5}),
			wantErr: true,
		},
		{
			name:    "Empty matrix",
			yTrue:   &mat.Dense{},
			yPred:   &mat.Dense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUCMatrix(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUCMatrix() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUCMatrix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect predictions",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0, 0, 1, 1},
			want:  0.0, // Will be small epsilon value due to clipping
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.2, 0.8, 0.9},
			want:  0.164252, // Approximate expected value
		},
		{
			name:  "Worst predictions",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.9, 0.9, 0.1, 0.1},
			want:  2.3025851, // Approximate expected value
		},
		{
			name:  "Clipping edge case",
			yTrue: []float64{0, 1},
			yPred: []float64{0, 1}, // Will be clipped to avoid log(0)
			want:  0.0,             // Small value due to epsilon
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := BinaryLogLoss(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("BinaryLogLoss() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 0.01 {
				t.Errorf("BinaryLogLoss() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassificationError(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect classification",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  0.0,
		},
		{
			name:  "One error",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 1, 1, 0},
			want:  0.2,
		},
		{
			name:  "All wrong",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  1.0,
		},
		{
			name:  "Binary classification",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0, 1, 1, 0},
			want:  0.5,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := ClassificationError(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("ClassificationError() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ClassificationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCDegenerateWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) {
		warnings = append(warnings, w)
	})
	defer errors.SetWarningHandler(nil)

	yTrue := mat.NewVecDense(3, []float64{1, 1, 1})
	yPred := mat.NewVecDense(3, []float64{0.2, 0.5, 0.9})

	got, err := AUC(yTrue, yPred)
	if err != nil {
		t.Fatalf("AUC() error = %v", err)
	}
	if got != 0.5 {
		t.Errorf("AUC() = %v, want 0.5", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	var undef *errors.UndefinedMetricWarning
	if !errors.As(warnings[0], &undef) {
		t.Errorf("warning = %T, want *UndefinedMetricWarning", warnings[0])
	}
}

func TestLogLoss(t *testing.T) {
	classes := []float64{0, 1, 2}

	tests := []struct {
		name    string
		yTrue   []float64
		proba   *mat.Dense
		want    float64
		wantErr bool
	}{
		{
			name:  "Confident correct",
			yTrue: []float64{0, 1, 2},
			proba: mat.NewDense(3, 3, []float64{
				0.9, 0.05, 0.05,
				0.05, 0.9, 0.05,
				0.05, 0.05, 0.9,
			}),
			want: -math.Log(0.9),
		},
		{
			name:  "Uniform probabilities",
			yTrue: []float64{0, 1, 2},
			proba: mat.NewDense(3, 3, []float64{
				1.0 / 3, 1.0 / 3, 1.0 / 3,
				1.0 / 3, 1.0 / 3, 1.0 / 3,
				1.0 / 3, 1.0 / 3, 1.0 / 3,
			}),
			want: math.Log(3),
		},
		{
			name:    "Row mismatch",
			yTrue:   []float64{0, 1},
			proba:   mat.NewDense(3, 3, nil),
			wantErr: true,
		},
		{
			name:    "Unknown label",
			yTrue:   []float64{0, 1, 7},
			proba:   mat.NewDense(3, 3, nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			got, err := LogLoss(yTrue, tt.proba, classes)
			if (err != nil) != tt.wantErr {
				t.Errorf("LogLoss() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LogLoss() = %v, want %v", got, tt.want)
			}
		})
	}

	// Exact 0 and 1 probabilities are clipped, never infinite.
	yTrue := mat.NewVecDense(2, []float64{0, 1})
	proba := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	got, err := LogLoss(yTrue, proba, []float64{0, 1})
	if err != nil {
		t.Fatalf("LogLoss() error = %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("LogLoss() = %v, want finite", got)
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 1, 1, 2, 0})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewConfusionMatrix() error = %v", err)
	}

	if !reflect.DeepEqual(cm.Labels, []float64{0, 1, 2}) {
		t.Fatalf("Labels = %v, want [0 1 2]", cm.Labels)
	}
	wantCounts := [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 1},
	}
	if !reflect.DeepEqual(cm.Counts, wantCounts) {
		t.Errorf("Counts = %v, want %v", cm.Counts, wantCounts)
	}
	if cm.Total() != 6 {
		t.Errorf("Total() = %d, want 6", cm.Total())
	}
	if got := cm.Accuracy(); math.Abs(got-4.0/6.0) > 1e-9 {
		t.Errorf("Accuracy() = %v, want %v", got, 4.0/6.0)
	}

	tbl, err := cm.Table([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("Table rows = %d, want 3", tbl.NumRows())
	}
	for _, name := range []string{"truth", "pred_a", "pred_b", "pred_c"} {
		if !tbl.HasColumn(name) {
			t.Errorf("Table missing column %q", name)
		}
	}

	if _, err := cm.Table([]string{"only_one"}); err == nil {
		t.Error("wrong class name count should fail")
	}

	if _, err := NewConfusionMatrix(nil, yPred); err == nil {
		t.Error("nil input should fail")
	}
	if _, err := NewConfusionMatrix(yTrue, mat.NewVecDense(2, []float64{0, 1})); err == nil {
		t.Error("length mismatch should fail")
	}
}

func TestPrecisionRecall(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 1, 1, 2, 0})

	scores, err := PrecisionRecall(yTrue, yPred)
	if err != nil {
		t.Fatalf("PrecisionRecall() error = %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("len(scores) = %d, want 3", len(scores))
	}

	// Class 0: predicted twice (1 right), present twice (1 recalled).
	if math.Abs(scores[0].Precision-0.5) > 1e-9 {
		t.Errorf("class 0 precision = %v, want 0.5", scores[0].Precision)
	}
	if math.Abs(scores[0].Recall-0.5) > 1e-9 {
		t.Errorf("class 0 recall = %v, want 0.5", scores[0].Recall)
	}
	// Class 1: predicted three times (2 right), both true rows recalled.
	if math.Abs(scores[1].Precision-2.0/3.0) > 1e-9 {
		t.Errorf("class 1 precision = %v, want 2/3", scores[1].Precision)
	}
	if math.Abs(scores[1].Recall-1.0) > 1e-9 {
		t.Errorf("class 1 recall = %v, want 1", scores[1].Recall)
	}
	if scores[2].Support != 2 {
		t.Errorf("class 2 support = %d, want 2", scores[2].Support)
	}
}

func TestPrecisionRecallUndefinedWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) {
		warnings = append(warnings, w)
	})
	defer errors.SetWarningHandler(nil)

	// Class 2 is never predicted, so its precision is undefined.
	yTrue := mat.NewVecDense(4, []float64{0, 1, 2, 2})
	yPred := mat.NewVecDense(4, []float64{0, 1, 0, 1})

	scores, err := PrecisionRecall(yTrue, yPred)
	if err != nil {
		t.Fatalf("PrecisionRecall() error = %v", err)
	}
	if scores[2].Precision != 0 {
		t.Errorf("class 2 precision = %v, want 0", scores[2].Precision)
	}
	if len(warnings) == 0 {
		t.Error("expected an UndefinedMetricWarning for the unpredicted class")
	}
}

// Benchmark tests
func BenchmarkAUC(b *testing.B) {
	// Create test data
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < n/2 {
			yTrue[i] = 0
			yPred[i] = float64(i) / float64(n)
		} else {
			yTrue[i] = 1
			yPred[i] = float64(i) / float64(n)
		}
	}
	yTrueVec := mat.NewVecDense(n, yTrue)
	yPredVec := mat.NewVecDense(n, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrueVec, yPredVec)
	}
}

func BenchmarkBinaryLogLoss(b *testing.B) {
	// Create test data
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < n/2 {
			yTrue[i] = 0
			yPred[i] = 0.1 + 0.3*float64(i)/float64(n)
		} else {
			yTrue[i] = 1
			yPred[i] = 0.6 + 0.3*float64(i-n/2)/float64(n/2)
		}
	}
	yTrueVec := mat.NewVecDense(n, yTrue)
	yPredVec := mat.NewVecDense(n, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BinaryLogLoss(yTrueVec, yPredVec)
	}
}
