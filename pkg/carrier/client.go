// Package carrier adapts the teacher's SignalWire REST client
// (pkg/signalwire/client.go) into a carrier-neutral outbound-call and
// markup client for spec.md §4.1/§4.12: placing the outbound call,
// generating the play/gather carrier markup the webhook handlers
// return, and receiving status callbacks. The SignalWire
// project/token/space auth model and LaML REST shape are kept; field
// and type names are generalized since this spec is not
// SignalWire-specific.
package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/retry"
)

// Client is the process-wide carrier REST client.
type Client struct {
	projectID  string
	authToken  string
	space      string
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client against the carrier's LaML-compatible REST
// endpoint, mirroring the teacher's NewClient.
func New(projectID, authToken, space string) *Client {
	return &Client{
		projectID: projectID,
		authToken: authToken,
		space:     space,
		baseURL:   fmt.Sprintf("https://%s/api/laml/2010-04-01", space),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PlaceCallRequest mirrors the teacher's CallRequest, trimmed to the
// fields spec.md §4.1 needs to start an outbound call.
type PlaceCallRequest struct {
	From              string
	To                string
	AnswerURL         string
	StatusCallbackURL string
	RecordCall        bool
	RingTimeoutSec    int
}

// PlacedCall is the carrier's response to a call-creation request.
type PlacedCall struct {
	SID       string    `json:"sid"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
}

// PlaceCall starts an outbound call that, once answered, the carrier
// will POST to AnswerURL — the handler at AnswerURL responds with
// play/gather markup for the opening turn (spec.md §4.1).
func (c *Client) PlaceCall(ctx context.Context, req PlaceCallRequest) (*PlacedCall, error) {
	var placed *PlacedCall
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		p, err := c.doPlaceCall(ctx, req)
		if err != nil {
			return err
		}
		placed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (c *Client) doPlaceCall(ctx context.Context, req PlaceCallRequest) (*PlacedCall, error) {
	if c.projectID == "" || c.authToken == "" {
		return nil, errkind.New(errkind.Auth, "carrier credentials not configured")
	}

	form := url.Values{}
	form.Set("From", req.From)
	form.Set("To", req.To)
	form.Set("Url", req.AnswerURL)
	form.Set("Method", "POST")
	if req.StatusCallbackURL != "" {
		form.Set("StatusCallback", req.StatusCallbackURL)
		form.Set("StatusCallbackEvent", "initiated ringing answered completed")
		form.Set("StatusCallbackMethod", "POST")
	}
	if req.RecordCall {
		form.Set("Record", "true")
	}
	timeout := req.RingTimeoutSec
	if timeout <= 0 {
		timeout = 30
	}
	form.Set("Timeout", fmt.Sprintf("%d", timeout))

	reqURL := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.baseURL, c.projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "build call request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.projectID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errkind.Wrap(errkind.TransientUpstream, "carrier call request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.Wrap(errkind.TransientUpstream, "read carrier response", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, errkind.New(errkind.TransientUpstream, fmt.Sprintf("carrier API error (%d): %s", resp.StatusCode, string(body)))
	}

	var placed PlacedCall
	if err := json.Unmarshal(body, &placed); err != nil {
		return nil, errkind.Wrap(errkind.Internal, "parse carrier response", err)
	}
	return &placed, nil
}

// SentMessage is the carrier's response to an SMS send request.
type SentMessage struct {
	SID    string `json:"sid"`
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// SendSMS sends a text message over the same LaML REST API PlaceCall
// uses, grounded on the teacher's signalwire.Client.SendSMS, adapted
// for context cancellation and the errkind taxonomy. Used for the
// booking-confirmation follow-up a hot/warm lead gets when a call ends
// with a scheduled next step.
func (c *Client) SendSMS(ctx context.Context, from, to, body string) (*SentMessage, error) {
	var sent *SentMessage
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		s, err := c.doSendSMS(ctx, from, to, body)
		if err != nil {
			return err
		}
		sent = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

func (c *Client) doSendSMS(ctx context.Context, from, to, body string) (*SentMessage, error) {
	if c.projectID == "" || c.authToken == "" {
		return nil, errkind.New(errkind.Auth, "carrier credentials not configured")
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	reqURL := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "build sms request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.projectID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errkind.Wrap(errkind.TransientUpstream, "carrier sms request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.Wrap(errkind.TransientUpstream, "read carrier sms response", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, errkind.New(errkind.TransientUpstream, fmt.Sprintf("carrier sms API error (%d): %s", resp.StatusCode, string(respBody)))
	}

	var sent SentMessage
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return nil, errkind.Wrap(errkind.Internal, "parse carrier sms response", err)
	}
	return &sent, nil
}
