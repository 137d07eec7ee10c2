package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cuckoo-backend/internal/models"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// Client reads questions from the server's REST API. Every call is a single
// attempt bounded by the client timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	var body struct {
		Questions []*models.Question `json:"questions"`
	}
	if err := c.get(ctx, "/api/questions/", &body); err != nil {
		return nil, err
	}
	return body.Questions, nil
}

func (c *Client) Question(ctx context.Context, id int64) (*models.Question, error) {
	var body struct {
		Question *models.Question `json:"question"`
	}
	if err := c.get(ctx, "/api/questions/"+strconv.FormatInt(id, 10)+"/", &body); err != nil {
		return nil, err
	}
	if body.Question == nil {
		return nil, fmt.Errorf("question %d: empty response", id)
	}
	return body.Question, nil
}

func (c *Client) RandomQuestion(ctx context.Context) (*models.Question, error) {
	var body struct {
		Opinion *models.Question `json:"opinion"`
	}
	if err := c.get(ctx, "/api/get-random-question/", &body); err != nil {
		return nil, err
	}
	if body.Opinion == nil {
		return nil, errors.New("random question: empty response")
	}
	return body.Opinion, nil
}
