package model

import (
	"fmt"
	"math"
)

// Labels shown in the result panel when the endpoint did not classify.
const (
	LabelNoResult     = "No result"
	LabelPredictError = "Error predicting disease"
	errorLabelPrefix  = "Error: "
)

// Upload is an image chosen by the user, held as raw bytes.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u Upload) Empty() bool {
	return u.Name == "" && len(u.Data) == 0
}

// PredictionResponse is the JSON body returned by the prediction endpoint.
// Empty strings count as absent.
type PredictionResponse struct {
	ClassIndex *int     `json:"class_index,omitempty"`
	ClassName  string   `json:"class_name,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Result is what the result panel renders.
type Result struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Result maps a decoded response onto a display result.
func (r *PredictionResponse) Result() Result {
	switch {
	case r == nil:
		return Result{Label: LabelNoResult}
	case r.ClassName != "":
		return Result{Label: r.ClassName, Confidence: r.Confidence}
	case r.Error != "":
		return Result{Label: errorLabelPrefix + r.Error}
	default:
		return Result{Label: LabelNoResult}
	}
}

// FailedResult is shown for transport and decode failures.
func FailedResult() Result {
	return Result{Label: LabelPredictError}
}

// ConfidenceText formats the confidence as a percentage with two decimals,
// rounding half away from zero. Empty when there is no confidence.
func (r Result) ConfidenceText() string {
	if r.Confidence == nil {
		return ""
	}
	rounded := math.Round(*r.Confidence*100) / 100
	return fmt.Sprintf("%.2f%%", rounded)
}
