package normalizer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

const (
	DefaultBodyLimit    = 1000
	DigestBodyLimit     = 2000
	DefaultSubjectLimit = 80
	senderLimit         = 30
	previewLimit        = 150
	ellipsis            = "..."
	unknown             = "Unknown"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

type Options struct {
	BodyLimit    int
	SubjectLimit int
	// CleanURLs replaces links with "[URL]" and collapses whitespace in the body.
	CleanURLs bool
}

func DefaultOptions() Options {
	return Options{BodyLimit: DefaultBodyLimit, SubjectLimit: DefaultSubjectLimit}
}

// Normalizer turns raw RFC 5322 bytes into display-ready records. It never
// fails: anything it cannot decode degrades to best-effort text.
type Normalizer struct {
	opts    Options
	decoder *mime.WordDecoder
	logger  *logger.Logger
}

func New(opts Options, logger *logger.Logger) *Normalizer {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	if opts.SubjectLimit <= 0 {
		opts.SubjectLimit = DefaultSubjectLimit
	}
	return &Normalizer{
		opts:    opts,
		decoder: &mime.WordDecoder{CharsetReader: charset.NewReaderLabel},
		logger:  logger,
	}
}

func (n *Normalizer) Normalize(raw model.RawMessage) *model.NormalizedMessage {
	result := &model.NormalizedMessage{
		ID:   raw.ID,
		From: unknown,
		Date: unknown,
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Data))
	if err != nil {
		n.logger.Warnf("Failed to parse message %s: %v", raw.ID, err)
		return result
	}

	if subject := msg.Header.Get("Subject"); subject != "" {
		result.Subject = truncate(n.decodeHeader(subject), n.opts.SubjectLimit, n.opts.SubjectLimit)
	}
	if from := msg.Header.Get("From"); from != "" {
		result.From = truncate(senderName(n.decodeHeader(from)), senderLimit, senderLimit-len(ellipsis))
	}
	if date := msg.Header.Get("Date"); date != "" {
		result.Date = date
	}

	body, err := n.extractBody(msg.Header, msg.Body)
	if err != nil {
		n.logger.Warnf("Failed to extract body of message %s: %v", raw.ID, err)
	}
	if n.opts.CleanURLs {
		body = CleanText(body)
	}
	result.Body = truncateRunes(body, n.opts.BodyLimit)
	result.Preview = Preview(result.Body)

	return result
}

func (n *Normalizer) decodeHeader(value string) string {
	decoded, err := n.decoder.DecodeHeader(value)
	if err != nil {
		decoded = value
	}
	return strings.ToValidUTF8(decoded, "\uFFFD")
}

// senderName keeps the display name of "Name <addr>" fields.
func senderName(from string) string {
	if idx := strings.Index(from, "<"); idx >= 0 {
		return strings.TrimSpace(from[:idx])
	}
	return from
}

func (n *Normalizer) extractBody(h mail.Header, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		// Missing or broken content type: treat the payload as text.
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		text, _, err := firstPlainText(body, params["boundary"])
		return text, err
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return decodeText(content, h.Get("Content-Transfer-Encoding"), params["charset"]), nil
}

// firstPlainText walks the MIME tree depth-first in encounter order and
// returns the first text/plain part.
func firstPlainText(body io.Reader, boundary string) (string, bool, error) {
	if boundary == "" {
		return "", false, fmt.Errorf("multipart message missing boundary")
	}

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to read next part: %w", err)
		}

		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain"
		}
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			// A broken nested part does not hide later siblings.
			if text, found, _ := firstPlainText(part, params["boundary"]); found {
				return text, true, nil
			}
			continue
		}

		if mediaType != "text/plain" {
			continue
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return "", false, fmt.Errorf("failed to read text part: %w", err)
		}
		// multipart.Reader already strips quoted-printable, leaving base64.
		return decodeText(content, part.Header.Get("Content-Transfer-Encoding"), params["charset"]), true, nil
	}
}

func decodeText(content []byte, transferEncoding, charsetLabel string) string {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		cleaned := strings.Join(strings.Fields(string(content)), "")
		if decoded, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
			content = decoded
		} else if decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "=")); err == nil {
			content = decoded
		}
	case "quoted-printable":
		if decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(content))); err == nil {
			content = decoded
		}
	}

	label := strings.ToLower(strings.TrimSpace(charsetLabel))
	if label != "" && label != "utf-8" && label != "utf8" && label != "us-ascii" {
		if r, err := charset.NewReaderLabel(label, bytes.NewReader(content)); err == nil {
			if decoded, err := io.ReadAll(r); err == nil {
				content = decoded
			}
		}
	}

	return strings.ToValidUTF8(string(content), "\uFFFD")
}

// CleanText replaces links with "[URL]" and collapses runs of whitespace.
func CleanText(s string) string {
	s = urlPattern.ReplaceAllString(s, "[URL]")
	return CollapseWhitespace(s)
}

func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// Preview is the whitespace-collapsed body, cut at 150 characters with an
// ellipsis when something was cut.
func Preview(body string) string {
	return truncate(CollapseWhitespace(body), previewLimit, previewLimit)
}

// truncate keeps the first keep runes and appends an ellipsis when s is
// longer than limit runes.
func truncate(s string, limit, keep int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return truncateRunes(s, keep) + ellipsis
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
