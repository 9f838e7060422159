package calendar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/nhle/branch-tracker/internal/lib/logger/sl"
)

// ErrMissingClientSecrets is returned when the OAuth client secrets
// file does not exist.
var ErrMissingClientSecrets = errors.New("OAuth client secrets file not found")

// Scope is the only permission requested from the user.
const Scope = gcal.CalendarReadonlyScope

// consentTimeout bounds how long the browser consent step may take.
const consentTimeout = 5 * time.Minute

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(tok *oauth2.Token) error
}

// ConsentFunc presents the consent URL to the user.
type ConsentFunc func(authURL string)

// Authorizer produces Calendar token sources, running the browser
// consent flow when no usable token is stored.
type Authorizer struct {
	credentialsFile string
	store           TokenStore
	consent         ConsentFunc
	log             *slog.Logger
}

// NewAuthorizer creates an Authorizer reading client secrets from
// credentialsFile.
func NewAuthorizer(
	credentialsFile string,
	store TokenStore,
	consent ConsentFunc,
	log *slog.Logger,
) *Authorizer {
	return &Authorizer{
		credentialsFile: credentialsFile,
		store:           store,
		consent:         consent,
		log:             log,
	}
}

// Config loads the OAuth client configuration.
func (a *Authorizer) Config() (*oauth2.Config, error) {
	data, err := os.ReadFile(a.credentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingClientSecrets, a.credentialsFile)
		}
		return nil, fmt.Errorf("reading client secrets %s: %w", a.credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets %s: %w", a.credentialsFile, err)
	}
	return cfg, nil
}

// TokenSource returns a token source that refreshes as needed and
// writes refreshed tokens back to the store.
func (a *Authorizer) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	tok, err := a.store.LoadToken()
	if err != nil || tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		if err != nil {
			a.log.Debug("no stored calendar token", sl.Err(err))
		}
		tok, err = a.Authorize(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	return oauth2.ReuseTokenSource(tok, &savingTokenSource{
		base:  cfg.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
		log:   a.log,
	}), nil
}

// Authorize runs the installed-app consent flow on a loopback
// redirect and stores the resulting token.
func (a *Authorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting consent listener: %w", err)
	}

	redirect := *cfg
	redirect.RedirectURL = "http://" + ln.Addr().String() + "/"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		Handler:           consentHandler(state, codeCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer srv.Close()

	a.consent(redirect.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	ctx, cancel := context.WithTimeout(ctx, consentTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, fmt.Errorf("calendar consent: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for calendar consent: %w", ctx.Err())
	}

	tok, err := redirect.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := a.store.SaveToken(tok); err != nil {
		a.log.Warn("could not store calendar token", sl.Err(err))
	}
	return tok, nil
}

// consentHandler accepts a single redirect carrying the authorization
// code.
func consentHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	var once sync.Once
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			once.Do(func() { errCh <- fmt.Errorf("authorization denied: %s", e) })
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You may close this window.")
		once.Do(func() { codeCh <- code })
	})
}

// savingTokenSource stores every newly minted access token.
type savingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore
	log   *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.SaveToken(tok); err != nil {
			s.log.Warn("could not store refreshed calendar token", sl.Err(err))
		}
	}
	return tok, nil
}
