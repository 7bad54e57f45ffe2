package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "tidylearn: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "tidylearn: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 5, 1)

	want := "tidylearn: Predict: dimension mismatch on axis 1 (features). Expected 10, got 5"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("KMeans", "Predict")

	want := "tidylearn: KMeans: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("n_clusters", "must be positive", -3)

	want := "tidylearn: validation failed for parameter 'n_clusters': must be positive (got: -3)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValidationError")
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		param   string
		value   interface{}
		message string
		wantMsg string
	}{
		{
			name:    "with message",
			op:      "SetParam",
			param:   "penalty",
			value:   -0.5,
			message: "must be positive",
			wantMsg: "tidylearn: SetParam: penalty: -0.5 (must be positive)",
		},
		{
			name:    "without message",
			op:      "SetParam",
			param:   "max_features",
			value:   0,
			message: "",
			wantMsg: "tidylearn: SetParam: max_features: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.message != "" {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v (%s)", tt.param, tt.value, tt.message))
			} else {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v", tt.param, tt.value))
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("LassoLogistic", 1000, "loss did not decrease")

	want := "LassoLogistic failed to converge after 1000 iterations: loss did not decrease"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("roc_auc", "only one class present in labels", 0.5))

	if len(captured) != 1 {
		t.Fatalf("Expected 1 captured warning, got %d", len(captured))
	}

	var undefWarn *UndefinedMetricWarning
	if !As(captured[0], &undefWarn) {
		t.Fatal("Warning should be castable to *UndefinedMetricWarning")
	}
	if undefWarn.Result != 0.5 {
		t.Errorf("Result = %v, want 0.5", undefWarn.Result)
	}
}

func TestWrapAndIs(t *testing.T) {
	baseErr := ErrColumnNotFound

	wrapped := Wrap(baseErr, "in Table.Select")

	if !Is(wrapped, ErrColumnNotFound) {
		t.Error("Expected Is(wrapped, ErrColumnNotFound) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in Table.Select") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	baseErr := ErrEmptyData

	wrapped := Wrapf(baseErr, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{
			name:    "finite values",
			values:  []float64{1.0, -2.5, 0.0},
			wantErr: false,
		},
		{
			name:    "contains NaN",
			values:  []float64{1.0, math.NaN()},
			wantErr: true,
		},
		{
			name:    "contains Inf",
			values:  []float64{math.Inf(1), 0.0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("test_op", tt.values, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckNumericalStability() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var numErr *NumericalInstabilityError
				if !As(err, &numErr) {
					t.Error("Error should be castable to *NumericalInstabilityError")
				}
			}
		})
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1.0, 0.0); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %v, want 0", got)
	}
	if got := SafeDivide(6.0, 2.0); got != 3.0 {
		t.Errorf("SafeDivide(6, 2) = %v, want 3", got)
	}
}

func TestStabilizeLog(t *testing.T) {
	if got := StabilizeLog(0); math.IsInf(got, -1) {
		t.Error("StabilizeLog(0) should be finite")
	}
	if got := StabilizeLog(math.E); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("StabilizeLog(e) = %v, want 1", got)
	}
}

func TestStabilizeExp(t *testing.T) {
	if got := StabilizeExp(1000); math.IsInf(got, 1) {
		t.Error("StabilizeExp(1000) should be finite")
	}
	if got := StabilizeExp(-1000); got != 0 {
		t.Errorf("StabilizeExp(-1000) = %v, want 0", got)
	}
}
