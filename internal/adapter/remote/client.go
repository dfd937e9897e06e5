package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"babyplate/internal/domain"
	"babyplate/internal/replica"
)

// errorBody is the JSON body of a failed authority request. Remote is set on
// version conflicts.
type errorBody struct {
	Error  string             `json:"error"`
	Remote *domain.RemotePlan `json:"remote,omitempty"`
}

// Client is the HTTP client of the remote authority.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	logger *zap.Logger
}

var _ replica.Remote = (*Client)(nil)

// NewClient creates a Client for baseURL. tokens may be nil for an open
// authority. Retries are left to the sync engine.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: client, tokens: tokens, logger: logger}
}

// Push implements replica.Remote.
func (c *Client) Push(ctx context.Context, p domain.RemotePlan) (domain.RemoteAck, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.RemoteAck{}, err
	}
	var ack domain.RemoteAck
	req.SetBody(p).SetResult(&ack)

	var resp *resty.Response
	if p.CloudID == "" {
		resp, err = req.Post("/v1/plans")
	} else {
		resp, err = req.SetPathParam("cloudID", p.CloudID).Put("/v1/plans/{cloudID}")
	}
	if err := c.check("push", resp, err); err != nil {
		return domain.RemoteAck{}, err
	}
	return ack, nil
}

// Delete implements replica.Remote.
func (c *Client) Delete(ctx context.Context, cloudID string, version int) (domain.RemoteAck, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.RemoteAck{}, err
	}
	var ack domain.RemoteAck
	resp, err := req.
		SetResult(&ack).
		SetPathParam("cloudID", cloudID).
		SetQueryParam("version", strconv.Itoa(version)).
		Delete("/v1/plans/{cloudID}")
	if err := c.check("delete", resp, err); err != nil {
		return domain.RemoteAck{}, err
	}
	return ack, nil
}

// Pull implements replica.Remote.
func (c *Client) Pull(ctx context.Context, since *time.Time) (domain.PullResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.PullResult{}, err
	}
	var res domain.PullResult
	req.SetResult(&res)
	if since != nil {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}
	resp, err := req.Get("/v1/plans")
	if err := c.check("pull", resp, err); err != nil {
		return domain.PullResult{}, err
	}
	return res, nil
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: token: %v", domain.ErrSyncTransient, err)
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

// check maps transport failures and error statuses onto the sync errors.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Warn("remote request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrSyncTransient, op, err)
	}
	if !resp.IsError() {
		return nil
	}

	body, _ := resp.Error().(*errorBody)
	msg := http.StatusText(resp.StatusCode())
	if body != nil && body.Error != "" {
		msg = body.Error
	}
	c.logger.Warn("remote rejected request",
		zap.String("op", op),
		zap.Int("status_code", resp.StatusCode()),
		zap.String("error", msg))

	switch code := resp.StatusCode(); {
	case code == http.StatusConflict && body != nil && body.Remote != nil:
		return &domain.VersionMismatchError{Remote: *body.Remote}
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrSyncTransient, op, code, msg)
	case code == http.StatusBadRequest:
		return domain.Invalid("remote", "%s: %s", op, msg)
	default:
		return fmt.Errorf("%s: status %d: %s", op, code, msg)
	}
}
