package sheets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	ErrNoDocument   = errors.New("no document id given")
	ErrNoCredential = errors.New("no credential available")
)

// SessionProvider turns an opaque bearer credential and a document id into
// an authorized Document. The credential is passed through untouched.
type SessionProvider interface {
	Open(ctx context.Context, token, documentID string) (Document, error)
}

// serviceAccountKey is the limiter key for calls made without a bearer token.
const serviceAccountKey = "\x00service-account"

// maxLimiters bounds the per-credential limiter set; access tokens rotate, so
// stale entries are dropped wholesale once it fills up.
const maxLimiters = 1024

// GoogleSessions opens Google Sheets documents. A request bearer token wins;
// otherwise the service account in CredentialsFile is used.
//
// Sheets quotas are counted per user, so calls are paced per credential: each
// bearer token and the service account get their own limiter of Rate and
// Burst. A zero Rate disables pacing.
type GoogleSessions struct {
	CredentialsFile string
	Rate            rate.Limit
	Burst           int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Limiter returns the limiter shared by every session opened with token.
func (g *GoogleSessions) Limiter(token string) *rate.Limiter {
	if g.Rate <= 0 {
		return nil
	}
	key := token
	if key == "" {
		key = serviceAccountKey
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[key]; ok {
		return l
	}
	if g.limiters == nil || len(g.limiters) >= maxLimiters {
		g.limiters = make(map[string]*rate.Limiter)
	}
	l := rate.NewLimiter(g.Rate, max(g.Burst, 1))
	g.limiters[key] = l
	return l
}

func (g *GoogleSessions) Open(ctx context.Context, token, documentID string) (Document, error) {
	if documentID == "" {
		return nil, ErrNoDocument
	}
	var auth option.ClientOption
	switch {
	case token != "":
		auth = option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	case g.CredentialsFile != "":
		auth = option.WithCredentialsFile(g.CredentialsFile)
	default:
		return nil, ErrNoCredential
	}
	return NewSheetClient(ctx, documentID, g.Limiter(token), auth, option.WithScopes(sheets.SpreadsheetsScope))
}

// WorkbookSessions serves documents as .xlsx files under Dir, one file per
// document id. Open workbooks are shared between requests.
type WorkbookSessions struct {
	Dir string

	mu   sync.Mutex
	open map[string]*Workbook
}

func (w *WorkbookSessions) Open(ctx context.Context, _ string, documentID string) (Document, error) {
	if documentID == "" {
		return nil, ErrNoDocument
	}
	if documentID != filepath.Base(documentID) || strings.HasPrefix(documentID, ".") {
		return nil, fmt.Errorf("invalid document id %q", documentID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if wb, ok := w.open[documentID]; ok {
		return wb, nil
	}
	wb, err := OpenWorkbook(documentID, filepath.Join(w.Dir, documentID+".xlsx"))
	if err != nil {
		return nil, err
	}
	if w.open == nil {
		w.open = make(map[string]*Workbook)
	}
	w.open[documentID] = wb
	return wb, nil
}

// Close closes every workbook opened so far.
func (w *WorkbookSessions) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for id, wb := range w.open {
		errs = append(errs, wb.Close())
		delete(w.open, id)
	}
	return errors.Join(errs...)
}
