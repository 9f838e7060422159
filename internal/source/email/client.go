package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/branch-tracker/internal/source"
)

// IMAPClient wraps go-imap v2 for opening mailbox sessions.
type IMAPClient struct {
	cfg Config
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(cfg Config) *IMAPClient {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &IMAPClient{cfg: cfg}
}

// Open connects to the IMAP server, authenticates, and selects the
// configured folder. The caller must Close the returned session.
func (c *IMAPClient) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := c.cfg.Host + ":" + c.cfg.Port

	var client *imapclient.Client
	var err error

	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, &source.AuthError{
			SourceType: source.SourceTypeEmail,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.cfg.Username, err,
			),
		}
	}

	if _, err := client.Select(c.cfg.Folder, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("selecting %s: %w", c.cfg.Folder, err)
	}

	return &Session{client: client}, nil
}

// Session is an authenticated IMAP connection with a folder selected.
type Session struct {
	client *imapclient.Client
}

var _ source.Session = (*Session)(nil)

// SearchMessages runs a UID SEARCH built from q.
func (s *Session) SearchMessages(
	ctx context.Context, q source.MailQuery,
) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchData, err := s.client.UIDSearch(BuildCriteria(q), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	ids := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, uint32(uid))
	}
	return ids, nil
}

// FetchMessage returns the full message for uid without setting \Seen.
func (s *Session) FetchMessage(
	ctx context.Context, uid uint32,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(imap.UIDSetNum(imap.UID(uid)), fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message UID %d: %w", uid, err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("closing fetch: %w", err)
	}

	return raw, nil
}

// Close logs out and closes the connection. The folder was selected
// read-only, so nothing is expunged.
func (s *Session) Close() error {
	err := s.client.Logout().Wait()
	_ = s.client.Close()
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// BuildCriteria translates q into IMAP SEARCH criteria: SINCE, a
// Subject HEADER match and a nested OR of FROM keys.
func BuildCriteria(q source.MailQuery) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}

	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}
	if q.Subject != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{
			Key:   "Subject",
			Value: q.Subject,
		})
	}

	var senders []string
	for _, s := range q.Senders {
		if s = strings.TrimSpace(s); s != "" {
			senders = append(senders, s)
		}
	}

	switch len(senders) {
	case 0:
	case 1:
		criteria.Header = append(criteria.Header, fromField(senders[0]))
	default:
		or := imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{fromField(senders[0])}}
		for _, s := range senders[1:] {
			next := imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{fromField(s)}}
			or = imap.SearchCriteria{Or: [][2]imap.SearchCriteria{{or, next}}}
		}
		criteria.Or = or.Or
	}

	return criteria
}

func fromField(addr string) imap.SearchCriteriaHeaderField {
	return imap.SearchCriteriaHeaderField{Key: "From", Value: addr}
}
