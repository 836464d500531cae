package api

import (
	"context"
	"errors"
	"sync"

	"patientsheets/pkg/sheets"
)

// mockSessions hands out in-memory workbooks keyed by document id and records
// the credentials it was given.
type mockSessions struct {
	mu       sync.Mutex
	docs     map[string]sheets.Document
	Tokens   []string
	OpenFunc func(token, documentID string) (sheets.Document, error)
}

func newMockSessions() *mockSessions {
	return &mockSessions{docs: make(map[string]sheets.Document)}
}

func (m *mockSessions) Open(ctx context.Context, token, documentID string) (sheets.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, token)
	if m.OpenFunc != nil {
		return m.OpenFunc(token, documentID)
	}
	if documentID == "" {
		return nil, sheets.ErrNoDocument
	}
	if doc, ok := m.docs[documentID]; ok {
		return doc, nil
	}
	wb, err := sheets.OpenWorkbook(documentID, "")
	if err != nil {
		return nil, err
	}
	m.docs[documentID] = wb
	return wb, nil
}

// brokenDoc fails every call the way an unreachable document service would.
type brokenDoc struct{}

var errUnavailable = errors.New("googleapi: Error 503: The service is currently unavailable")

func (brokenDoc) ID() string { return "broken" }
func (brokenDoc) TableNames(context.Context) ([]string, error) {
	return nil, errUnavailable
}
func (brokenDoc) AddTable(context.Context, string) error { return errUnavailable }
func (brokenDoc) ReadRange(context.Context, sheets.Range) ([][]string, error) {
	return nil, errUnavailable
}
func (brokenDoc) WriteRange(context.Context, sheets.Range, [][]string) error {
	return errUnavailable
}
func (brokenDoc) DeleteRow(context.Context, string, int) error { return errUnavailable }
