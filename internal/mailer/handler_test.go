package mailer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/email"
	"github.com/jmerrifield20/SkillSwap/internal/mailer"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newRouter(sender email.Sender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mailer.NewHandler(sender, zap.NewNop()).Register(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/MailSystem/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	return resp["error"]
}

func TestSend_dispatchesNoticeByType(t *testing.T) {
	cases := []struct {
		typ     string
		subject string
	}{
		{"NewFeature", "New Feature Released"},
		{"updatefeature", "Feature Update Notification"},
		{"DOWNTIME", "Scheduled Downtime Alert"},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			sender := &recordingSender{}
			w := post(newRouter(sender), `{"Email":"a@example.com","Type":"`+tc.typ+`","Title":"Dark mode","Description":"Now live"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if len(sender.sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sender.sent))
			}
			msg := sender.sent[0]
			if msg.To != "a@example.com" || msg.Subject != tc.subject {
				t.Errorf("to = %q subject = %q", msg.To, msg.Subject)
			}
			if !strings.Contains(msg.HTML, "Dark mode") || !strings.Contains(msg.HTML, "Now live") {
				t.Error("notice body missing title or description")
			}
		})
	}
}

func TestSend_lowercaseFieldsBind(t *testing.T) {
	sender := &recordingSender{}
	w := post(newRouter(sender), `{"email":"b@example.com","type":"downtime","title":"t","description":"d"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSend_validation(t *testing.T) {
	r := newRouter(&recordingSender{})

	w := post(r, `{"Email":"","Type":"downtime"}`)
	if w.Code != http.StatusBadRequest || errorOf(t, w) != "Email and Type are required." {
		t.Errorf("missing email: %d %s", w.Code, w.Body.String())
	}

	w = post(r, `{"Email":"a@example.com","Type":"party"}`)
	if w.Code != http.StatusBadRequest || errorOf(t, w) != "Invalid message type." {
		t.Errorf("bad type: %d %s", w.Code, w.Body.String())
	}
}

func TestSend_senderFailure(t *testing.T) {
	w := post(newRouter(&recordingSender{err: errors.New("smtp down")}), `{"Email":"a@example.com","Type":"downtime"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestClient_ForwardRelaysStatusAndBody(t *testing.T) {
	sender := &recordingSender{}
	srv := httptest.NewServer(newRouter(sender))
	defer srv.Close()

	c := mailer.NewClient(srv.URL+"/", 0)
	status, body, err := c.Forward(context.Background(), []byte(`{"Email":"a@example.com","Type":"party"}`))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if status != http.StatusBadRequest || !bytes.Contains(body, []byte("Invalid message type.")) {
		t.Errorf("status = %d body = %s", status, body)
	}

	status, _, err = c.Forward(context.Background(), []byte(`{"Email":"a@example.com","Type":"newfeature"}`))
	if err != nil || status != http.StatusOK {
		t.Fatalf("status = %d err = %v", status, err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(sender.sent))
	}
}
