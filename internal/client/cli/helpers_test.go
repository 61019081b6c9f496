package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/client/client"
	"github.com/dmitrijs2005/chitchat/internal/client/config"
	"github.com/dmitrijs2005/chitchat/internal/client/models"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
)

type sentRequest struct {
	Event string
	Data  string
}

// fakeClient answers requests from canned JSON responses.
type fakeClient struct {
	mu        sync.Mutex
	sent      []sentRequest
	responses map[string]string
	errs      map[string]error
	pushes    chan protocol.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: map[string]string{},
		errs:      map[string]error{},
		pushes:    make(chan protocol.Frame, 8),
		done:      make(chan struct{}),
	}
}

func (f *fakeClient) Request(_ context.Context, event string, req, resp any) error {
	data, _ := json.Marshal(req)
	f.mu.Lock()
	f.sent = append(f.sent, sentRequest{Event: event, Data: string(data)})
	err, body := f.errs[event], f.responses[event]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if resp != nil && body != "" {
		return json.Unmarshal([]byte(body), resp)
	}
	return nil
}

func (f *fakeClient) Pushes() <-chan protocol.Frame { return f.pushes }
func (f *fakeClient) Done() <-chan struct{}         { return f.done }

func (f *fakeClient) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeClient) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []string
	for _, s := range f.sent {
		res = append(res, s.Event)
	}
	return res
}

func (f *fakeClient) lastData(event string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Event == event {
			return f.sent[i].Data
		}
	}
	return ""
}

type dialCall struct {
	Token, Event string
}

// stubDial makes dial hand out anon for anonymous connections and authed
// for token connections.
func stubDial(t *testing.T, anon, authed *fakeClient) *[]dialCall {
	t.Helper()
	orig := dial
	var calls []dialCall
	dial = func(_ context.Context, _ string, token, event string) (client.Client, error) {
		calls = append(calls, dialCall{Token: token, Event: event})
		if token == "" {
			return anon, nil
		}
		return authed, nil
	}
	t.Cleanup(func() { dial = orig })
	return &calls
}

// stubInputs answers text prompts from answers in order and passwords
// with password.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP, origML := getSimpleText, getPassword, getMultiline
	next := func() string {
		if len(answers) == 0 {
			return ""
		}
		a := answers[0]
		answers = answers[1:]
		return a
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origST, origGP, origML
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp(input string) (*App, *syncBuffer) {
	out := &syncBuffer{}
	return &App{
		config:  &config.Config{ServerURL: "ws://test/ws", RequestTimeout: time.Second},
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
		friends: map[string]string{},
	}, out
}

const sessionJSON = `{"success":true,"user":{"id":"u1","fullName":"Alice","email":"alice@example.com"},"token":"tok-1"}`

// memStore is an in-memory sessionStore.
type memStore struct {
	mu      sync.Mutex
	sess    *models.Session
	cleared int
}

func (m *memStore) LoadSession(context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	s := *m.sess
	return &s, nil
}

func (m *memStore) SaveSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &s
	return nil
}

func (m *memStore) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	m.cleared++
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saved() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}
