package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/toban/contribhub/internal/domain"
)

// OAuthToken is the result of exchanging an authorization code with an
// external service.
type OAuthToken struct {
	AccessToken   string
	Scope         string
	WorkspaceID   string
	WorkspaceName string
}

// OAuthExchanger exchanges an OAuth authorization code for an access token.
type OAuthExchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*OAuthToken, error)
}

// ResourceLister fetches the resources of an external service workspace.
type ResourceLister interface {
	ListResources(ctx context.Context, accessToken string) ([]*domain.ServiceResource, error)
}

const slackAPIBaseURL = "https://slack.com/api"

// SlackOAuthClient exchanges OAuth codes against the Slack OAuth v2 endpoint.
type SlackOAuthClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
}

// NewSlackOAuthClient creates a new SlackOAuthClient
func NewSlackOAuthClient(clientID, clientSecret string) *SlackOAuthClient {
	return &SlackOAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      slackAPIBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

type slackOAuthResponse struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error"`
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	Team        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

// Exchange trades an authorization code for a workspace access token.
func (c *SlackOAuthClient) Exchange(ctx context.Context, code, redirectURI string) (*OAuthToken, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("%w: slack client credentials are not configured", domain.ErrOAuthExchange)
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth.v2.access", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	var payload slackOAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}

	if !payload.OK {
		return nil, fmt.Errorf("%w: %s", domain.ErrOAuthExchange, payload.Error)
	}

	return &OAuthToken{
		AccessToken:   payload.AccessToken,
		Scope:         payload.Scope,
		WorkspaceID:   payload.Team.ID,
		WorkspaceName: payload.Team.Name,
	}, nil
}

// SlackResourceClient lists workspace channels through the Slack Web API.
type SlackResourceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSlackResourceClient creates a new SlackResourceClient
func NewSlackResourceClient() *SlackResourceClient {
	return &SlackResourceClient{
		baseURL:    slackAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type slackChannelList struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Channels []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		IsPrivate  bool   `json:"is_private"`
		IsArchived bool   `json:"is_archived"`
		NumMembers int    `json:"num_members"`
	} `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// ListResources fetches all channels of the workspace, following pagination
// cursors until the list is exhausted.
func (c *SlackResourceClient) ListResources(ctx context.Context, accessToken string) ([]*domain.ServiceResource, error) {
	var resources []*domain.ServiceResource
	cursor := ""

	for {
		page, err := c.listPage(ctx, accessToken, cursor)
		if err != nil {
			return nil, err
		}

		for _, ch := range page.Channels {
			resources = append(resources, &domain.ServiceResource{
				ResourceType: "slack_channel",
				ExternalID:   ch.ID,
				Name:         ch.Name,
				Metadata: map[string]any{
					"is_private":  ch.IsPrivate,
					"is_archived": ch.IsArchived,
					"num_members": ch.NumMembers,
				},
			})
		}

		cursor = page.ResponseMetadata.NextCursor
		if cursor == "" {
			return resources, nil
		}
	}
}

func (c *SlackResourceClient) listPage(ctx context.Context, accessToken, cursor string) (*slackChannelList, error) {
	endpoint := c.baseURL + "/conversations.list?limit=200&types=public_channel,private_channel"
	if cursor != "" {
		endpoint += "&cursor=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload slackChannelList
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if !payload.OK {
		return nil, fmt.Errorf("slack API error: %s", payload.Error)
	}

	return &payload, nil
}
