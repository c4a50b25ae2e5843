package model

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
)

// FileField is the multipart part name the endpoint reads the image from.
const FileField = "file"

const defaultFileName = "upload"

type ClientConfig struct {
	Endpoint string
	// Timeout bounds a whole request. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client posts images to the prediction endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	logger   *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	http := resty.New()
	if cfg.Timeout > 0 {
		http.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:     http,
		endpoint: cfg.Endpoint,
		logger:   logger,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends one multipart POST and decodes the JSON body. The HTTP
// status is not inspected: the endpoint reports failures in the body.
func (c *Client) Predict(ctx context.Context, upload Upload) (*PredictionResponse, error) {
	name := upload.Name
	if name == "" {
		name = defaultFileName
	}

	req := c.http.R().SetContext(ctx)
	if upload.ContentType != "" {
		req.SetMultipartField(FileField, name, upload.ContentType, bytes.NewReader(upload.Data))
	} else {
		req.SetFileReader(FileField, name, bytes.NewReader(upload.Data))
	}

	start := time.Now()
	resp, err := req.Post(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, "model.predict", "prediction request failed", err)
	}

	c.logger.Debug("prediction response received",
		"endpoint", c.endpoint,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"elapsed", time.Since(start),
	)

	return decodeResponse(resp.Body(), resp.StatusCode())
}

// decodeResponse reads a prediction body. A JSON null is a failure; any
// other non-object value carries no fields and yields an empty response.
func decodeResponse(body []byte, status int) (*PredictionResponse, error) {
	var top interface{}
	if err := sonic.Unmarshal(body, &top); err != nil {
		return nil, errors.Wrap(errors.KindDecode, "model.predict",
			fmt.Sprintf("undecodable response (status %d)", status), err)
	}

	switch top.(type) {
	case nil:
		return nil, errors.New(errors.KindDecode, "model.predict",
			fmt.Sprintf("null response body (status %d)", status))
	case map[string]interface{}:
	default:
		return &PredictionResponse{}, nil
	}

	var out PredictionResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(errors.KindDecode, "model.predict",
			fmt.Sprintf("undecodable response (status %d)", status), err)
	}
	return &out, nil
}
