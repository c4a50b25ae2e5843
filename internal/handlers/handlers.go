package handlers

import (
	"context"
	"embed"
	stderrors "errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
	"github.com/Brownie44l1/plant-predict-ui/internal/model"
	"github.com/Brownie44l1/plant-predict-ui/internal/preview"
	"github.com/Brownie44l1/plant-predict-ui/internal/session"
	"github.com/Brownie44l1/plant-predict-ui/internal/view"
)

const (
	// SessionCookie carries the id of the browser's view.
	SessionCookie = "plantui_view"
	// ImageField is the form field the page uploads the image under.
	ImageField = "image"
	// PreviewPrefix is the route previews are served from.
	PreviewPrefix = "/preview/"
)

//go:embed templates/index.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/index.html"))

type pageData struct {
	State  view.State
	Notice string
}

type Handler struct {
	sessions  *session.Manager
	previews  *preview.Store
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(sessions *session.Manager, previews *preview.Store, maxUpload int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:  sessions,
		previews:  previews,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Register mounts the page and API routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/", h.Index)
	r.POST("/select", h.Select)
	r.POST("/predict", h.Predict)
	r.POST("/discard", h.Discard)
	r.GET(PreviewPrefix+":id", h.Preview)

	api := r.Group("/api")
	api.GET("/state", h.State)
	api.POST("/select", h.APISelect)
	api.POST("/predict", h.APIPredict)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// currentView resolves the caller's view and refreshes the session cookie.
func (h *Handler) currentView(c *gin.Context) *view.View {
	id, _ := c.Cookie(SessionCookie)
	v, id := h.sessions.Get(id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	return v
}

func (h *Handler) render(c *gin.Context, code int, data pageData) {
	c.Render(code, render.HTML{Template: page, Name: "index.html", Data: data})
}

func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{State: h.currentView(c).Snapshot()})
}

// readUpload pulls the image part out of a multipart form.
func (h *Handler) readUpload(c *gin.Context) (model.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	header, err := c.FormFile(ImageField)
	if err != nil {
		return model.Upload{}, err
	}
	file, err := header.Open()
	if err != nil {
		return model.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.Upload{}, err
	}

	h.logger.Info("received file", "name", header.Filename, "bytes", header.Size)
	return model.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) Select(c *gin.Context) {
	v := h.currentView(c)

	upload, err := h.readUpload(c)
	if stderrors.Is(err, http.ErrMissingFile) {
		// the picker fired without a file
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err != nil {
		h.logger.Warn("image upload rejected", "err", err)
		h.render(c, http.StatusBadRequest, pageData{State: v.Snapshot(), Notice: "Could not read the uploaded image."})
		return
	}
	if err := v.SelectImage(upload); err != nil {
		h.logger.Error("image selection failed", "err", err)
		h.render(c, http.StatusInternalServerError, pageData{State: v.Snapshot(), Notice: "Could not preview the uploaded image."})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// predictContext detaches the prediction from the browser connection so a
// dispatched request always runs to completion.
func predictContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) Predict(c *gin.Context) {
	v := h.currentView(c)

	_, err := v.Predict(predictContext(c))
	switch {
	case errors.IsKind(err, errors.KindPrecondition):
		h.render(c, http.StatusOK, pageData{State: v.Snapshot(), Notice: view.NoticeNoImage})
	case errors.IsKind(err, errors.KindBusy):
		h.render(c, http.StatusConflict, pageData{State: v.Snapshot()})
	default:
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func (h *Handler) Discard(c *gin.Context) {
	if id, err := c.Cookie(SessionCookie); err == nil {
		h.sessions.Discard(id)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// Preview serves the caller's own current preview. Uploaded bytes are
// never rendered as a document.
func (h *Handler) Preview(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsPreview(c, id) {
		c.Status(http.StatusNotFound)
		return
	}
	p, ok := h.previews.Get(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "sandbox")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}

// ownsPreview checks id against the view bound to the request's cookie
// without creating a session.
func (h *Handler) ownsPreview(c *gin.Context, id string) bool {
	sid, err := c.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	v, ok := h.sessions.Lookup(sid)
	return ok && v.OwnsPreview(id)
}

func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.currentView(c).Snapshot())
}

func (h *Handler) APISelect(c *gin.Context) {
	v := h.currentView(c)

	upload, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file provided, use 'image' as the form field name"})
		return
	}
	if err := v.SelectImage(upload); err != nil {
		h.logger.Error("image selection failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to preview image"})
		return
	}
	c.JSON(http.StatusOK, v.Snapshot())
}

func (h *Handler) APIPredict(c *gin.Context) {
	v := h.currentView(c)

	result, err := v.Predict(predictContext(c))
	switch {
	case errors.IsKind(err, errors.KindPrecondition):
		c.JSON(http.StatusBadRequest, gin.H{"error": view.NoticeNoImage})
	case errors.IsKind(err, errors.KindBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "prediction already in progress"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"label":           result.Label,
			"confidence":      result.Confidence,
			"confidence_text": result.ConfidenceText(),
		})
	}
}
