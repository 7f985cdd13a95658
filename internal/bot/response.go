package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gw2webhooks/internal/common"
	"gw2webhooks/internal/markup"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

type Field struct {
	Name   string
	Value  markup.Text
	Inline bool
}

// Message produced by a cycle, before it is rendered for its destination
type Notification struct {
	Title       string
	Description markup.Text
	Fields      []Field
	Color       int
	Timestamp   time.Time
}

// Whole notification as styled text: bold title, description, then every field
func (n Notification) Text() markup.Text {
	text := markup.Text{}
	if n.Title != "" {
		text = text.Bold(n.Title).Plain("\n\n")
	}
	text = text.Append(n.Description)
	for _, field := range n.Fields {
		text = text.Plain("\n\n").Bold(field.Name).Plain("\n").Append(field.Value)
	}
	return text
}

func (n Notification) Markdown() string {
	return n.Text().Markdown()
}

func (n Notification) Embed(thumbnail string) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description.Markdown(),
		Color:       n.Color,
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, field := range n.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value.Markdown(),
			Inline: field.Inline,
		})
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return embed
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// DeliveryError means the webhook did not accept the message.
// StatusCode is 0 when no response was received
type DeliveryError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("could not deliver notification: %v", e.Err)
	}
	return fmt.Sprintf("could not deliver notification: %d %s", e.StatusCode, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Posts notifications as a single embed through a Discord webhook
type WebhookNotifier struct {
	session   *discordgo.Session
	id        string
	token     string
	username  string
	avatar    string
	thumbnail string
}

func NewWebhookNotifier(webhookURL string, username string, avatar string, thumbnail string, timeout time.Duration) (*WebhookNotifier, error) {

	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}
	// A failed delivery waits for the next cycle
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false
	session.Client = &http.Client{Timeout: timeout}
	session.UserAgent = "gw2webhooks"

	return &WebhookNotifier{
		session:   session,
		id:        id,
		token:     token,
		username:  username,
		avatar:    avatar,
		thumbnail: thumbnail,
	}, nil
}

func (notifier *WebhookNotifier) Notify(ctx context.Context, notification Notification) error {

	params := &discordgo.WebhookParams{
		Username:  notifier.username,
		AvatarURL: notifier.avatar,
		Embeds:    []*discordgo.MessageEmbed{notification.Embed(notifier.thumbnail)},
	}
	log.Debug().Msg(fmt.Sprintf("Executing webhook %s", notifier.id))
	if _, err := notifier.session.WebhookExecute(notifier.id, notifier.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return deliveryError(err)
	}
	log.Info().Msg(fmt.Sprintf("Notification '%s' delivered", notification.Title))
	return nil
}

func deliveryError(err error) error {

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		message := common.StatusMessage(restErr.Response.StatusCode)
		if restErr.Message != nil && restErr.Message.Message != "" {
			message = restErr.Message.Message
		}
		return &DeliveryError{StatusCode: restErr.Response.StatusCode, Message: message, Err: err}
	}
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return &DeliveryError{StatusCode: common.RATE_LIMIT_EXCEEDED, Message: common.StatusMessage(common.RATE_LIMIT_EXCEEDED), Err: err}
	}
	return &DeliveryError{Err: err}
}

// Split a webhook url of the form https://discord.com/api/webhooks/<id>/<token>
func ParseWebhookURL(webhookURL string) (string, string, error) {

	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", "", errors.Wrap(err, "invalid webhook url")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", errors.Newf("webhook url must be http or https, got %q", u.Scheme)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if segment != "webhooks" || i+3 != len(segments) {
			continue
		}
		id, token := segments[i+1], segments[i+2]
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return "", "", errors.Newf("webhook id %q is not numeric", id)
		}
		if token == "" {
			return "", "", errors.New("webhook token is empty")
		}
		return id, token, nil
	}
	return "", "", errors.Newf("%s is not a webhook url", u.Redacted())
}

// Writes notifications to the console instead of sending them
type PrintNotifier struct {
	out      io.Writer
	markdown bool
	styled   bool
}

// Markdown prints what the webhook would post. Otherwise the text
// is rendered with emoji, and with ANSI styles when styled is set
func NewPrintNotifier(out io.Writer, markdown bool, styled bool) *PrintNotifier {
	return &PrintNotifier{out: out, markdown: markdown, styled: styled}
}

func (notifier *PrintNotifier) Notify(ctx context.Context, notification Notification) error {

	var rendered string
	switch {
	case notifier.markdown:
		rendered = notification.Markdown()
	case notifier.styled:
		rendered = notification.Text().Terminal()
	default:
		rendered = notification.Text().String()
	}
	if _, err := fmt.Fprintln(notifier.out, rendered); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}
