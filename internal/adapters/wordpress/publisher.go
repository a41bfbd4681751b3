// Package wordpress publishes generated posts through the WordPress REST API using
// application passwords.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
)

const (
	postsPath = "/wp-json/wp/v2/posts"
	mediaPath = "/wp-json/wp/v2/media"

	maxImageBytes = 20 << 20
)

// Publisher implements core.Publisher for WordPress sites.
type Publisher struct {
	cfg    config.PublisherConfig
	http   *http.Client
	logger *slog.Logger
}

var _ core.Publisher = (*Publisher)(nil)

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	Config     config.PublisherConfig
	HTTPClient *http.Client // Optional: defaults to a client with Config.HTTPTimeout
	Logger     *slog.Logger
}

// NewPublisher builds a Publisher.
func NewPublisher(opts PublisherOptions) *Publisher {
	cfg := opts.Config
	cfg.Sanitize()
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, http: client, logger: logger.With("component", "wordpress_publisher")}
}

type createPostRequest struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Excerpt       string  `json:"excerpt,omitempty"`
	Status        string  `json:"status"`
	Categories    []int64 `json:"categories,omitempty"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
}

type createdObject struct {
	ID        int64  `json:"id"`
	Link      string `json:"link"`
	SourceURL string `json:"source_url"`
}

// Publish creates the post on site. A featured image that cannot be attached is dropped with a
// warning; the post is still created.
func (p *Publisher) Publish(
	ctx context.Context,
	site *model.Site,
	content *model.GeneratedContent,
) (*model.PublishResult, error) {
	if site == nil || content == nil {
		return nil, &apperrors.PublishError{Reason: apperrors.PublishReasonRejected, Cause: errors.New("site and content are required")}
	}
	logger := p.logger.With("site_id", site.ID)

	excerpt, words, err := Excerpt(content.Body, p.cfg.ExcerptWords)
	if err != nil {
		logger.WarnContext(ctx, "could not derive excerpt", "error", err)
	}

	var mediaID int64
	if content.ImageURL != "" {
		mediaID, err = p.uploadFeaturedImage(ctx, site, content.ImageURL, content.Title)
		if err != nil {
			if isCtxErr(ctx, err) {
				return nil, err
			}
			logger.WarnContext(ctx, "publishing without featured image", "image_url", content.ImageURL, "error", err)
		}
	}

	status := site.DefaultStatus
	if !status.Valid() {
		status = model.PostStatusPublish
	}
	body, err := json.Marshal(createPostRequest{
		Title:         content.Title,
		Content:       content.Body,
		Excerpt:       excerpt,
		Status:        string(status),
		Categories:    site.CategoryIDs,
		FeaturedMedia: mediaID,
	})
	if err != nil {
		return nil, &apperrors.PublishError{Reason: apperrors.PublishReasonRejected, Cause: err}
	}

	var created createdObject
	if err := p.do(ctx, site, postsPath, "application/json", "", bytes.NewReader(body), &created); err != nil {
		return nil, err
	}
	if created.ID == 0 {
		return nil, &apperrors.PublishError{
			Reason: apperrors.PublishReasonRejected,
			Cause:  errors.New("response did not include a post id"),
		}
	}

	logger.InfoContext(ctx, "post created",
		"remote_post_id", created.ID,
		"status", status,
		"words", words,
		"featured_media", mediaID,
	)
	return &model.PublishResult{RemotePostID: strconv.FormatInt(created.ID, 10), RemotePostURL: created.Link}, nil
}

// uploadFeaturedImage copies the generated image into the site's media library.
func (p *Publisher) uploadFeaturedImage(ctx context.Context, site *model.Site, imageURL, title string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("new image request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(img)
	}
	disposition := fmt.Sprintf(`attachment; filename="%s"`, imageFilename(imageURL, contentType))

	var media createdObject
	if err := p.do(ctx, site, mediaPath, contentType, disposition, bytes.NewReader(img), &media); err != nil {
		return 0, fmt.Errorf("upload image: %w", err)
	}
	p.logger.DebugContext(ctx, "featured image uploaded", "site_id", site.ID, "media_id", media.ID, "title", title)
	return media.ID, nil
}

func (p *Publisher) do(
	ctx context.Context,
	site *model.Site,
	endpoint, contentType, disposition string,
	body io.Reader,
	out any,
) error {
	url := strings.TrimRight(site.BaseURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return &apperrors.PublishError{Reason: apperrors.PublishReasonRejected, Cause: err}
	}
	req.SetBasicAuth(site.Username, site.AppPassword)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	if disposition != "" {
		req.Header.Set("Content-Disposition", disposition)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		if isCtxErr(ctx, err) {
			return err
		}
		return &apperrors.PublishError{Reason: apperrors.PublishReasonNetwork, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &apperrors.PublishError{
			Reason: reasonForStatus(resp.StatusCode),
			Cause:  fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, remoteMessage(msg)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.PublishError{Reason: apperrors.PublishReasonRejected, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func reasonForStatus(code int) apperrors.PublishReason {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.PublishReasonAuth
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return apperrors.PublishReasonNetwork
	default:
		return apperrors.PublishReasonRejected
	}
}

// remoteMessage extracts the "message" field of a WordPress REST error, falling back to the raw body.
func remoteMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		return wpErr.Code + ": " + wpErr.Message
	}
	return strings.TrimSpace(string(body))
}

func imageFilename(imageURL, contentType string) string {
	name := path.Base(strings.SplitN(imageURL, "?", 2)[0])
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		ext := ".png"
		if strings.Contains(contentType, "jpeg") {
			ext = ".jpg"
		} else if strings.Contains(contentType, "webp") {
			ext = ".webp"
		}
		name = "featured" + ext
	}
	return strings.ReplaceAll(name, `"`, "")
}

func isCtxErr(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
}

// Excerpt returns the first n words of the HTML body's text along with the total word count.
func Excerpt(body string, n int) (string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	doc.Find("script, style, figure, figcaption").Remove()

	var text strings.Builder
	for _, node := range doc.Nodes {
		collectText(node, &text)
	}
	words := strings.Fields(text.String())
	if len(words) <= n {
		return strings.Join(words, " "), len(words), nil
	}
	return strings.Join(words[:n], " ") + "…", len(words), nil
}

// collectText gathers text nodes separated by spaces so adjacent block elements do not run together.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
