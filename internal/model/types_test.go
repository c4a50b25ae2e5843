package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestPredictionResponse_Result(t *testing.T) {
	tests := []struct {
		name     string
		resp     *PredictionResponse
		wantText string
		want     Result
	}{
		{
			name:     "classified",
			resp:     &PredictionResponse{ClassName: "Healthy", Confidence: ptr(97.345)},
			want:     Result{Label: "Healthy", Confidence: ptr(97.345)},
			wantText: "97.35%",
		},
		{
			name: "classified without confidence",
			resp: &PredictionResponse{ClassName: "Tomato_Leaf_Mold"},
			want: Result{Label: "Tomato_Leaf_Mold"},
		},
		{
			name: "application error",
			resp: &PredictionResponse{Error: "invalid image"},
			want: Result{Label: "Error: invalid image"},
		},
		{
			name:     "class name wins over error",
			resp:     &PredictionResponse{ClassName: "Potato___healthy", Confidence: ptr(50.0), Error: "ignored"},
			want:     Result{Label: "Potato___healthy", Confidence: ptr(50.0)},
			wantText: "50.00%",
		},
		{
			name: "empty class name is absent",
			resp: &PredictionResponse{ClassName: "", Confidence: ptr(10.0)},
			want: Result{Label: "No result"},
		},
		{
			name: "no fields",
			resp: &PredictionResponse{},
			want: Result{Label: "No result"},
		},
		{
			name: "nil response",
			resp: nil,
			want: Result{Label: "No result"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.resp.Result()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantText, got.ConfidenceText())
		})
	}
}

func TestResult_ConfidenceText(t *testing.T) {
	tests := map[float64]string{
		97.345: "97.35%",
		12.5:   "12.50%",
		99.995: "100.00%",
		0:      "0.00%",
		100:    "100.00%",
	}
	for in, want := range tests {
		assert.Equal(t, want, Result{Confidence: ptr(in)}.ConfidenceText(), "%v", in)
	}
	assert.Empty(t, Result{Label: "x"}.ConfidenceText())
}

func TestFailedResult(t *testing.T) {
	r := FailedResult()
	assert.Equal(t, "Error predicting disease", r.Label)
	assert.Nil(t, r.Confidence)
}

func TestUpload_Empty(t *testing.T) {
	assert.True(t, Upload{}.Empty())
	assert.False(t, Upload{Name: "leaf.jpg"}.Empty())
	assert.False(t, Upload{Data: []byte{1}}.Empty())
}
