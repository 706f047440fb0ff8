package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
)

type Options struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// TLSConfig overrides the default TLS settings, mainly for tests.
	TLSConfig *tls.Config
	// Insecure dials without TLS; only for local test servers.
	Insecure bool
}

type imapTransport struct {
	opts   Options
	logger *logger.Logger
}

// NewIMAPTransport opens read-only IMAP sessions with address + app password.
func NewIMAPTransport(opts Options, logger *logger.Logger) service.MailTransport {
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	return &imapTransport{opts: opts, logger: logger}
}

func (t *imapTransport) Connect(ctx context.Context) (service.MailSession, error) {
	dialer := new(net.Dialer)
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Timeout = time.Until(deadline)
		if dialer.Timeout <= 0 {
			return nil, fmt.Errorf("failed to dial %s: %w", t.opts.Addr, context.DeadlineExceeded)
		}
	}

	c, err := t.dial(dialer)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", t.opts.Addr, err)
	}
	c.Timeout = dialer.Timeout

	if err := c.Login(t.opts.Username, t.opts.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	// Read-only select (EXAMINE) so fetching never flags messages as seen.
	if _, err := c.Select(t.opts.Mailbox, true); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to examine %s: %w", t.opts.Mailbox, err)
	}

	t.logger.Debugf("Connected to IMAP mailbox %s", t.opts.Mailbox)
	return &imapSession{client: c}, nil
}

// dial bounds the TCP connect, TLS handshake and greeting by dialer.Timeout.
func (t *imapTransport) dial(dialer *net.Dialer) (*client.Client, error) {
	if t.opts.Insecure {
		return client.DialWithDialer(dialer, t.opts.Addr)
	}
	return client.DialWithDialerTLS(dialer, t.opts.Addr, t.opts.TLSConfig)
}

type imapSession struct {
	client *client.Client
}

// Search returns sequence numbers in ascending order.
func (s *imapSession) Search(ctx context.Context, query model.DateQuery) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqNums, err := s.client.Search(SearchCriteria(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	ids := make([]string, len(seqNums))
	for i, n := range seqNums {
		ids[i] = strconv.FormatUint(uint64(n), 10)
	}
	return ids, nil
}

func (s *imapSession) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", id, err)
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uint32(n))
	section := &goimap.BodySectionName{Peek: true}

	messages := make(chan *goimap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqSet, []goimap.FetchItem{section.FetchItem()}, messages)
	}()

	raw, readErr := readBody(messages, section)
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", id, readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %s has no body", id)
	}
	return raw, nil
}

// readBody drains messages to the end so the fetch goroutine can finish,
// keeping the first read error.
func readBody(messages <-chan *goimap.Message, section *goimap.BodySectionName) ([]byte, error) {
	var raw []byte
	var readErr error
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil || readErr != nil {
			continue
		}
		raw, readErr = io.ReadAll(body)
	}
	return raw, readErr
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}

// SearchCriteria maps a DateQuery to IMAP SINCE / ON semantics. IMAP
// compares dates only, so ON is SINCE day AND BEFORE day+1.
func SearchCriteria(query model.DateQuery) *goimap.SearchCriteria {
	day := time.Date(query.Date.Year(), query.Date.Month(), query.Date.Day(), 0, 0, 0, 0, time.UTC)

	criteria := goimap.NewSearchCriteria()
	criteria.Since = day
	if query.Mode == model.QueryOn {
		criteria.Before = day.AddDate(0, 0, 1)
	}
	return criteria
}
