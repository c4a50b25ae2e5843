package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
	"github.com/Brownie44l1/plant-predict-ui/internal/model"
	"github.com/Brownie44l1/plant-predict-ui/internal/preview"
)

// Messages surfaced to the user.
const (
	NoticeNoImage = "Please upload an image first!"

	ButtonIdle    = "Predict Disease"
	ButtonLoading = "Predicting..."
)

var (
	ErrNoImage  = errors.New(errors.KindPrecondition, "view.predict", NoticeNoImage)
	ErrInFlight = errors.New(errors.KindBusy, "view.predict", "a prediction is already in progress")
)

// Predictor performs the remote classification.
type Predictor interface {
	Predict(ctx context.Context, upload model.Upload) (*model.PredictionResponse, error)
}

// State is a point-in-time copy of a view.
type State struct {
	ImageName  string `json:"image_name,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	// PreviewWidth and PreviewHeight are zero when the preview is not a
	// decoded image.
	PreviewWidth  int          `json:"preview_width,omitempty"`
	PreviewHeight int          `json:"preview_height,omitempty"`
	Result        model.Result `json:"result"`
	Loading       bool         `json:"loading"`
}

func (s State) HasImage() bool { return s.PreviewURL != "" }

// ShowResult reports whether the result panel is visible.
func (s State) ShowResult() bool { return s.Result.Label != "" }

func (s State) ButtonDisabled() bool { return s.Loading }

func (s State) ButtonLabel() string {
	if s.Loading {
		return ButtonLoading
	}
	return ButtonIdle
}

// View holds the state of one upload-and-predict page. It is safe for
// concurrent use; at most one prediction runs at a time.
type View struct {
	predictor     Predictor
	previews      *preview.Store
	previewPrefix string
	logger        *slog.Logger

	mu        sync.Mutex
	upload    *model.Upload
	previewID string
	previewW  int
	previewH  int
	result    model.Result
	loading   bool
	closed    bool
}

type Options struct {
	Predictor Predictor
	Previews  *preview.Store
	// PreviewPrefix is prepended to preview IDs to build PreviewURL.
	PreviewPrefix string
	Logger        *slog.Logger
}

func New(opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		predictor:     opts.Predictor,
		previews:      opts.Previews,
		previewPrefix: opts.PreviewPrefix,
		logger:        logger,
	}
}

// SelectImage stores upload, replaces the preview and clears any result.
// An empty upload is ignored.
func (v *View) SelectImage(upload model.Upload) error {
	if upload.Empty() {
		return nil
	}

	p, err := v.previews.Create(upload.Data)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		v.previews.Release(p.ID)
		return nil
	}
	if v.previewID != "" {
		v.previews.Release(v.previewID)
	}
	v.upload = &upload
	v.previewID = p.ID
	v.previewW, v.previewH = p.Width, p.Height
	v.result = model.Result{}

	v.logger.Debug("image selected", "name", upload.Name, "bytes", len(upload.Data), "preview", p.ID)
	return nil
}

// Predict sends the selected image and records the outcome. It returns
// ErrNoImage without side effects when nothing is selected and
// ErrInFlight while another prediction is running. Transport and decode
// failures are logged and reported through the result, not the error.
func (v *View) Predict(ctx context.Context) (model.Result, error) {
	v.mu.Lock()
	if v.upload == nil {
		v.mu.Unlock()
		return model.Result{}, ErrNoImage
	}
	if v.loading {
		v.mu.Unlock()
		return model.Result{}, ErrInFlight
	}
	upload := *v.upload
	v.loading = true
	v.mu.Unlock()

	result := model.FailedResult()
	defer func() {
		v.mu.Lock()
		v.result = result
		v.loading = false
		v.mu.Unlock()
	}()

	resp, err := v.call(ctx, upload)
	if err != nil {
		v.logger.Error("prediction failed", "image", upload.Name, "kind", errors.KindOf(err), "err", err)
		return result, nil
	}

	result = resp.Result()
	v.logger.Info("prediction result", "image", upload.Name, "label", result.Label, "confidence", result.ConfidenceText())
	return result, nil
}

func (v *View) call(ctx context.Context, upload model.Upload) (resp *model.PredictionResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return v.predictor.Predict(ctx, upload)
}

func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Result:  v.result,
		Loading: v.loading,
	}
	if v.upload != nil {
		s.ImageName = v.upload.Name
	}
	if v.previewID != "" {
		s.PreviewURL = v.previewPrefix + v.previewID
		s.PreviewWidth = v.previewW
		s.PreviewHeight = v.previewH
	}
	return s
}

// OwnsPreview reports whether id is this view's current preview.
func (v *View) OwnsPreview(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return id != "" && id == v.previewID
}

// Close releases the preview. The view keeps answering Snapshot but
// ignores further selections.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.previewID != "" {
		v.previews.Release(v.previewID)
		v.previewID = ""
		v.previewW, v.previewH = 0, 0
	}
	v.closed = true
}
