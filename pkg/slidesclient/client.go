package slidesclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
	"github.com/materials-commons/mcslides/pkg/webapi"
)

var (
	ErrSlidesAPI = errors.New("mcslides api")
	ErrNotFound  = errors.New("not found")
)

// ErrorResponse is the JSON body mcslidesd sends with error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client talks to a running mcslidesd.
type Client struct {
	r *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		r: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Minute).
			SetHeader("Accept", "application/json"),
	}
}

// Upload sends a presentation file for conversion and waits for the result.
func (c *Client) Upload(path string) (*webapi.ConvertResponse, error) {
	var result webapi.ConvertResponse
	resp, err := c.r.R().
		SetFile("presentation", path).
		SetResult(&result).
		Post("/convert")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &result, nil
}

// ConvertUpload converts a finished tus upload.
func (c *Client) ConvertUpload(uploadID string) (*webapi.ConvertResponse, error) {
	var result webapi.ConvertResponse
	resp, err := c.r.R().
		SetPathParam("uploadID", uploadID).
		SetResult(&result).
		Post("/convert/uploads/{uploadID}")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &result, nil
}

func (c *Client) List() ([]mcmodel.PresentationSummary, error) {
	var summaries []mcmodel.PresentationSummary
	resp, err := c.r.R().SetResult(&summaries).Get("/presentations")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return summaries, nil
}

func (c *Client) Get(id string) (*mcmodel.Presentation, error) {
	var p mcmodel.Presentation
	resp, err := c.r.R().SetPathParam("id", id).SetResult(&p).Get("/presentation/{id}")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &p, nil
}

func (c *Client) Delete(id string) error {
	resp, err := c.r.R().SetPathParam("id", id).Delete("/presentation/{id}")
	if err != nil {
		return err
	}

	if resp.IsError() {
		return ToErrorFromResponse(resp)
	}

	return nil
}

func (c *Client) Toolchain() (*webapi.ToolchainResponse, error) {
	var status webapi.ToolchainResponse
	resp, err := c.r.R().SetResult(&status).Get("/toolchain")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &status, nil
}

// ToErrorFromResponse turns an error status into an error. 404s also match ErrNotFound.
func ToErrorFromResponse(resp *resty.Response) error {
	var errorResponse ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errorResponse); err != nil || errorResponse.Error == "" {
		errorResponse.Error = http.StatusText(resp.StatusCode())
	}

	err := fmt.Errorf("(HTTP Status: %d) %s", resp.StatusCode(), errorResponse.Error)
	if resp.StatusCode() == http.StatusNotFound {
		return errors.Join(ErrSlidesAPI, ErrNotFound, err)
	}

	return errors.Join(ErrSlidesAPI, err)
}
