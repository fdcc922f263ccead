package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-chat-service/internal/domain"

	"github.com/valyala/fasthttp"
)

// ErrUnexpectedStatus is returned for non-2xx answers from the legacy API.
var ErrUnexpectedStatus = errors.New("unexpected status from remote api")

const legacyTimeLayout = "2006-01-02 15:04:05"

// Client talks to the legacy PHP endpoints that back the mobile app. It serves as
// pool loader and message gateway.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "quiz-chat-service",
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

type questionRecord struct {
	ID          flexString `json:"id"`
	Question    string     `json:"question"`
	OptionA     string     `json:"option_a"`
	OptionB     string     `json:"option_b"`
	OptionC     string     `json:"option_c"`
	OptionD     string     `json:"option_d"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation"`
}

type messageRecord struct {
	ID        flexString `json:"id"`
	Message   string     `json:"message"`
	Sender    string     `json:"sender"`
	CreatedAt string     `json:"created_at"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// LoadPool fetches the questions of a course.
func (c *Client) LoadPool(ctx context.Context, courseID string) ([]domain.Question, error) {
	var records []questionRecord
	if err := c.getJSON(ctx, "/get_questions.php", "course_id", courseID, &records); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrCourseNotFound
	}
	questions := make([]domain.Question, 0, len(records))
	for _, r := range records {
		questions = append(questions, domain.Question{
			ID:     string(r.ID),
			Prompt: r.Question,
			Options: []domain.Option{
				{Letter: "A", Text: r.OptionA},
				{Letter: "B", Text: r.OptionB},
				{Letter: "C", Text: r.OptionC},
				{Letter: "D", Text: r.OptionD},
			},
			Answer:      strings.ToUpper(strings.TrimSpace(r.Answer)),
			Explanation: r.Explanation,
		})
	}
	return questions, nil
}

// FetchMessages pulls the full support history of a user.
func (c *Client) FetchMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	var records []messageRecord
	if err := c.getJSON(ctx, "/get_messages.php", "user_id", userID, &records); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	msgs := make([]domain.ChatMessage, 0, len(records))
	for _, r := range records {
		sentAt, _ := time.ParseInLocation(legacyTimeLayout, r.CreatedAt, time.UTC)
		msgs = append(msgs, domain.ChatMessage{
			ID:     string(r.ID),
			Text:   r.Message,
			Sender: roleFromLegacy(r.Sender),
			SentAt: sentAt,
		})
	}
	return msgs, nil
}

// SendMessage posts a user message.
func (c *Client) SendMessage(ctx context.Context, userID, text string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/send_message.php")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.PostArgs().Set("user_id", userID)
	req.PostArgs().Set("message", text)

	if err := c.do(ctx, req, resp); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "rejected"
		}
		return fmt.Errorf("send message: %s", out.Error)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path, key, value string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.URI().QueryArgs().Set(key, value)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.do(ctx, req, resp); err != nil {
		return err
	}
	// Some endpoints answer "null" for an empty list.
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	return json.Unmarshal(body, out)
}

// do runs the request until the earlier of the client timeout and the context
// deadline. fasthttp cannot abort mid-flight, so a context cancelled meanwhile
// turns the response into an error.
func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	return nil
}

func roleFromLegacy(sender string) domain.Role {
	switch strings.ToLower(strings.TrimSpace(sender)) {
	case "admin", "support", "agent":
		return domain.RoleSupport
	default:
		return domain.RoleUser
	}
}

// flexString accepts both JSON strings and numbers; the PHP side is not consistent.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
