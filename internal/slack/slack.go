package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/trend"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

// Client handles Slack notifications
type Client struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string) *Client {
	return NewClientWithURL(botToken, channel, defaultAPIURL)
}

// NewClientWithURL creates a client posting to a custom chat.postMessage URL
func NewClientWithURL(botToken, channel, apiURL string) *Client {
	return &Client{
		botToken: botToken,
		channel:  channel,
		apiURL:   apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TrendReport is one analysis worth announcing
type TrendReport struct {
	Name        string
	Region      query.Region
	Range       query.Range
	Keywords    []string
	Summary     *trend.Summary
	Files       []string
	GeneratedAt time.Time
}

// ChatPostMessageRequest represents a Slack chat.postMessage request
type ChatPostMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// SendTrendSummary posts the riser, faller and peak ranking of a report
func (c *Client) SendTrendSummary(ctx context.Context, report TrendReport) error {
	return c.sendMessage(ctx, formatTrendMessage(report), c.channel)
}

// SendSimpleMessage sends a simple text message to Slack
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	return c.sendMessage(ctx, text, c.channel)
}

func formatTrendMessage(r TrendReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📈 *Tendencias - %s*", r.Region.Name())
	if r.Name != "" {
		fmt.Fprintf(&b, " (%s)", r.Name)
	}
	fmt.Fprintf(&b, "\n🗓️ %s a %s\n🛒 %s\n\n",
		r.Range.Start.Format("02/01/2006"),
		r.Range.End.Format("02/01/2006"),
		strings.Join(r.Keywords, ", "))

	if r.Summary != nil {
		fmt.Fprintf(&b, "🔺 *Más subió:* %s (%+.0f)\n", r.Summary.TopRiser.Keyword, r.Summary.TopRiser.Delta)
		fmt.Fprintf(&b, "🔻 *Más bajó:* %s (%+.0f)\n", r.Summary.TopFaller.Keyword, r.Summary.TopFaller.Delta)
		b.WriteString("🏆 *Ranking por pico máximo*\n")
		for _, p := range r.Summary.PeakRanking {
			fmt.Fprintf(&b, "%d. %s: %.0f\n", p.Rank, p.Keyword, p.Peak)
		}
	}

	if len(r.Files) > 0 {
		b.WriteString("\n📎 Archivos:\n")
		for _, f := range r.Files {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}

	fmt.Fprintf(&b, "\n⏰ Generado: %s", r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}

// sendMessage sends a message to the specified Slack channel
func (c *Client) sendMessage(ctx context.Context, text string, channel string) error {
	req := ChatPostMessageRequest{
		Channel:   channel,
		Text:      text,
		Username:  "Trends Dashboard",
		IconEmoji: ":chart_with_upwards_trend:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}
