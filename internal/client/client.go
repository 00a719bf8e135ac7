// Package client talks to the portfolio backend over HTTP for operator tooling
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

const defaultTimeout = 2 * time.Minute

// Client is an API client for the admin and public endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for the backend at baseURL
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken sets the bearer token sent on admin calls
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	return c.token
}

// Session is the result of a successful login
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadFile is one file of an upload batch. Filename may be empty for generic
// categories, the server then generates one.
type UploadFile struct {
	Filename string
	Name     string
	Body     io.Reader
}

// Login exchanges credentials for a token and keeps it for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", "application/json", bytes.NewReader(body), false, &session); err != nil {
		return nil, err
	}
	c.token = session.Token
	return &session, nil
}

// Verify checks that the current token is still accepted
func (c *Client) Verify(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/admin/verify", "", nil, true, nil)
}

// ListImages returns the admin listing of a category
func (c *Client) ListImages(ctx context.Context, category models.Category) ([]models.Image, error) {
	var images []models.Image
	err := c.do(ctx, http.MethodGet, "/api/admin/images/"+url.PathEscape(string(category)), "", nil, true, &images)
	return images, err
}

// ListPublicImages returns the public listing of a category
func (c *Client) ListPublicImages(ctx context.Context, category models.Category) ([]models.Image, error) {
	var images []models.Image
	err := c.do(ctx, http.MethodGet, "/api/public/images/"+url.PathEscape(string(category)), "", nil, false, &images)
	return images, err
}

// Pairs returns the before/after pairs
func (c *Client) Pairs(ctx context.Context) ([]models.Pair, error) {
	var pairs []models.Pair
	err := c.do(ctx, http.MethodGet, "/api/public/pairs", "", nil, false, &pairs)
	return pairs, err
}

// Categories returns the category set with capacities
func (c *Client) Categories(ctx context.Context) ([]models.CategoryInfo, error) {
	var cats []models.CategoryInfo
	err := c.do(ctx, http.MethodGet, "/api/public/categories", "", nil, false, &cats)
	return cats, err
}

// Reviews returns the five-star reviews
func (c *Client) Reviews(ctx context.Context) (*models.ReviewSummary, error) {
	var summary models.ReviewSummary
	if err := c.do(ctx, http.MethodGet, "/api/reviews", "", nil, false, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Upload sends a batch of files to a category in one multipart request
func (c *Client) Upload(ctx context.Context, category models.Category, files []UploadFile) (*services.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("category", string(category)); err != nil {
		return nil, err
	}
	for _, f := range files {
		name := f.Name
		if name == "" {
			name = f.Filename
		}
		// a part without a filename is parsed as a plain value
		if name == "" {
			name = "image"
		}
		part, err := mw.CreateFormFile("image", name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := mw.WriteField("filename", f.Filename); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var result services.UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/upload", mw.FormDataContentType(), &buf, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes an image. A second delete of the same id fails with NotFound.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/delete/"+url.PathEscape(publicID), "", nil, true, nil)
}

// DeleteIdempotent is Delete that treats an already missing image as deleted,
// for retries after an ambiguous first attempt. Only a NOT_FOUND answer from
// the backend counts, a bare 404 means the URL is wrong.
func (c *Client) DeleteIdempotent(ctx context.Context, publicID string) error {
	err := c.Delete(ctx, publicID)
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.Code == string(apperrors.KindNotFound) {
		return nil
	}
	return err
}

// Move moves an image to another category and returns its new record
func (c *Client) Move(ctx context.Context, publicID string, category models.Category) (models.Image, error) {
	body, err := json.Marshal(map[string]string{"publicId": publicID, "category": string(category)})
	if err != nil {
		return models.Image{}, err
	}
	var img models.Image
	err = c.do(ctx, http.MethodPost, "/api/admin/move", "application/json", bytes.NewReader(body), true, &img)
	return img, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, auth bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		if c.token == "" {
			return apperrors.Unauthorized("not logged in")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ResponseError is the raw error answer, kept as the cause of the returned
// apperrors.Error. Code is empty when the body was not an API error.
type ResponseError struct {
	StatusCode int
	Code       string
}

func (e *ResponseError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Code)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &payload)

	kind := apperrors.Kind(payload.Code)
	if kind == "" {
		kind = kindForStatus(resp.StatusCode)
	}
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}
	return apperrors.Wrap(kind, msg, &ResponseError{StatusCode: resp.StatusCode, Code: payload.Code})
}

func kindForStatus(status int) apperrors.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.KindUnauthorized
	case http.StatusNotFound:
		return apperrors.KindNotFound
	case http.StatusBadRequest:
		return apperrors.KindBadRequest
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperrors.KindUpstream
	default:
		return apperrors.KindInternal
	}
}
