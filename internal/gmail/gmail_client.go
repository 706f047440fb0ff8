package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
)

const (
	user          = "me"
	defaultMaxIDs = 500
	pageSize      = 100
)

var errStopPaging = errors.New("enough message ids")

type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// AccessToken is used as a static token when no refresh token is set.
	AccessToken string
	// Endpoint and HTTPClient override the Google defaults, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
	// MaxIDs bounds how many ids one search pages through.
	MaxIDs int
}

type gmailTransport struct {
	opts   Options
	logger *logger.Logger
}

// NewGmailTransport reads the mailbox through the Gmail API with the
// readonly scope.
func NewGmailTransport(opts Options, logger *logger.Logger) service.MailTransport {
	if opts.MaxIDs <= 0 {
		opts.MaxIDs = defaultMaxIDs
	}
	return &gmailTransport{opts: opts, logger: logger}
}

func (t *gmailTransport) Connect(ctx context.Context) (service.MailSession, error) {
	if t.opts.HTTPClient == nil && t.opts.RefreshToken == "" && t.opts.AccessToken == "" {
		return nil, fmt.Errorf("gmail credentials missing")
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(t.httpClient(ctx))}
	if t.opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(t.opts.Endpoint))
	}

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &gmailSession{svc: svc, maxIDs: t.opts.MaxIDs, logger: t.logger}, nil
}

func (t *gmailTransport) httpClient(ctx context.Context) *http.Client {
	if t.opts.HTTPClient != nil {
		return t.opts.HTTPClient
	}
	if t.opts.RefreshToken != "" {
		cfg := &oauth2.Config{
			ClientID:     t.opts.ClientID,
			ClientSecret: t.opts.ClientSecret,
			Scopes:       []string{gmail.GmailReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		return cfg.Client(ctx, &oauth2.Token{RefreshToken: t.opts.RefreshToken})
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t.opts.AccessToken}))
}

type gmailSession struct {
	svc    *gmail.Service
	maxIDs int
	logger *logger.Logger
}

// Search returns ids oldest first, matching IMAP's ordering. The Gmail API
// itself lists newest first.
func (s *gmailSession) Search(ctx context.Context, query model.DateQuery) ([]string, error) {
	q := SearchQuery(query)

	var ids []string
	call := s.svc.Users.Messages.List(user).Q(q).MaxResults(pageSize)
	err := call.Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if len(ids) >= s.maxIDs {
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	s.logger.Debugf("Gmail search %q matched %d messages", q, len(ids))
	return ids, nil
}

func (s *gmailSession) Fetch(ctx context.Context, id string) ([]byte, error) {
	msg, err := s.svc.Users.Messages.Get(user, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}
	return decodeRaw(msg.Raw)
}

func (s *gmailSession) Close() error {
	return nil
}

// SearchQuery renders a DateQuery in Gmail search syntax.
func SearchQuery(query model.DateQuery) string {
	day := query.Date.Format("2006/01/02")
	if query.Mode == model.QueryOn {
		next := query.Date.AddDate(0, 0, 1).Format("2006/01/02")
		return fmt.Sprintf("in:inbox after:%s before:%s", day, next)
	}
	return fmt.Sprintf("in:inbox after:%s", day)
}

func decodeRaw(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if data, err := base64.URLEncoding.DecodeString(raw); err == nil {
		return data, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw message: %w", err)
	}
	return data, nil
}
