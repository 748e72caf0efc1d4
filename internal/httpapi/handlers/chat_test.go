package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/dhlee-dev/portfolio-api/internal/ai"
	"github.com/dhlee-dev/portfolio-api/internal/chat"
	"github.com/dhlee-dev/portfolio-api/internal/httpapi/middleware"
	"github.com/dhlee-dev/portfolio-api/internal/portfolio"
)

const testSecret = "test-secret"

type fakeProvider struct {
	mu        sync.Mutex
	fragments []string
	calls     int
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return strings.Join(p.fragments, ""), nil
}

func (p *fakeProvider) StreamChat(ctx context.Context, messages []ai.Message, opts ai.Options) (<-chan string, <-chan error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	chunks := make(chan string, len(p.fragments))
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for _, f := range p.fragments {
			chunks <- f
		}
	}()
	return chunks, errs
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&chat.Session{}, &chat.Conversation{},
		&portfolio.Profile{}, &portfolio.Skill{}, &portfolio.Experience{}, &portfolio.Education{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestRouter(db *gorm.DB, prov ai.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)

	pfRepo := portfolio.NewRepo(db)
	chatRepo := chat.NewRepo(db)
	contexts := chat.NewContextProvider(pfRepo, nil, 0)
	svc := chat.NewService(chatRepo, contexts, chat.NewCompleter(prov), nil)

	h := &Handler{DB: db, ChatSvc: svc, Portfolio: pfRepo}

	r := gin.New()
	r.GET("/portfolio", h.GetPortfolio)
	g := r.Group("/chat")
	g.Use(middleware.VisitorSession(testSecret))
	g.POST("/send", h.SendMessage)
	g.GET("/history", h.ChatHistory)
	return r
}

func signedSessionCookie(t *testing.T, sid string) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign cookie: %v", err)
	}
	return &http.Cookie{Name: "portfolio_session", Value: signed}
}

// sseFrames extracts the JSON payload of each data: frame in order.
func sseFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if !strings.HasPrefix(block, "data: ") {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(block, "data: ")), &m); err != nil {
			t.Fatalf("bad frame %q: %v", block, err)
		}
		frames = append(frames, m)
	}
	return frames
}

func TestSendMessage_StreamsChunksThenDone(t *testing.T) {
	db := openTestDB(t)
	prov := &fakeProvider{fragments: []string{"Hello", ", ", "world"}}
	r := newTestRouter(db, prov)

	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"message":"hi"}`))
	req.AddCookie(signedSessionCookie(t, "01VISITORSTREAM0000000000"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type: got %q", ct)
	}

	frames := sseFrames(t, w.Body.String())
	if len(frames) != 4 {
		t.Fatalf("want 3 chunks + done, got %d frames: %v", len(frames), frames)
	}
	for i, want := range []string{"Hello", ", ", "world"} {
		if frames[i]["chunk"] != want {
			t.Fatalf("frame %d: want chunk %q, got %v", i, want, frames[i])
		}
	}
	final := frames[3]
	if final["done"] != true || final["remaining"] != float64(chat.MaxQuestions-1) {
		t.Fatalf("terminal frame: got %v", final)
	}

	var conv chat.Conversation
	if err := db.Where("session_id = ?", "01VISITORSTREAM0000000000").First(&conv).Error; err != nil {
		t.Fatalf("conversation not persisted: %v", err)
	}
	if conv.Answer != "Hello, world" {
		t.Fatalf("persisted answer: got %q", conv.Answer)
	}
}

func TestSendMessage_QuotaExceededReturns429(t *testing.T) {
	db := openTestDB(t)
	prov := &fakeProvider{fragments: []string{"never"}}
	r := newTestRouter(db, prov)

	if err := db.Create(&chat.Session{SessionID: "01VISITORFULL000000000000", QuestionCount: chat.MaxQuestions}).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"message":"one more"}`))
	req.AddCookie(signedSessionCookie(t, "01VISITORFULL000000000000"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: want 429, got %d", w.Code)
	}

	var body struct {
		Notice    string `json:"notice"`
		Remaining int    `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Notice == "" || body.Remaining != 0 {
		t.Fatalf("body: got %+v", body)
	}
	if n := prov.callCount(); n != 0 {
		t.Fatalf("provider must not be invoked, got %d calls", n)
	}

	var count int64
	db.Model(&chat.Conversation{}).Where("session_id = ?", "01VISITORFULL000000000000").Count(&count)
	if count != 0 {
		t.Fatalf("no conversation may be written, got %d", count)
	}
}

func TestSendMessage_MalformedBody(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(db, &fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"message":`))
	req.AddCookie(signedSessionCookie(t, "01VISITORBROKEN0000000000"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error") {
		t.Fatalf("body: got %s", w.Body.String())
	}
}

func TestSendMessage_MintsSessionCookie(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(db, &fakeProvider{fragments: []string{"hi"}})

	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", w.Code)
	}
	var minted bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "portfolio_session" && c.Value != "" {
			minted = true
		}
	}
	if !minted {
		t.Fatalf("first contact must set the session cookie")
	}
}

func TestChatHistory_FreshAndAfterExchanges(t *testing.T) {
	db := openTestDB(t)
	prov := &fakeProvider{fragments: []string{"an answer"}}
	r := newTestRouter(db, prov)

	cookie := signedSessionCookie(t, "01VISITORHISTORY000000000")

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", w.Code)
	}
	var fresh struct {
		History   []map[string]string `json:"history"`
		Remaining int                 `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fresh); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fresh.History) != 0 || fresh.Remaining != chat.MaxQuestions {
		t.Fatalf("fresh visitor: got %+v", fresh)
	}

	for _, q := range []string{"first", "second"} {
		body := fmt.Sprintf(`{"message":%q}`, q)
		sendReq := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(body))
		sendReq.AddCookie(cookie)
		sw := httptest.NewRecorder()
		r.ServeHTTP(sw, sendReq)
		if sw.Code != http.StatusOK {
			t.Fatalf("send %q: status %d", q, sw.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var after struct {
		History   []map[string]string `json:"history"`
		Remaining int                 `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(after.History) != 2 || after.Remaining != chat.MaxQuestions-2 {
		t.Fatalf("after exchanges: got %+v", after)
	}
	if after.History[0]["question"] != "first" || after.History[1]["question"] != "second" {
		t.Fatalf("history out of order: %+v", after.History)
	}
	for i, h := range after.History {
		if h["answer"] != "an answer" || h["timestamp"] == "" {
			t.Fatalf("entry %d incomplete: %+v", i, h)
		}
	}
}

func TestGetPortfolio(t *testing.T) {
	db := openTestDB(t)
	r := newTestRouter(db, &fakeProvider{})

	if err := db.Create(&portfolio.Profile{Name: "Donghyuk Lee", Email: "dh@example.com"}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if err := db.Create(&portfolio.Skill{Name: "Go", Level: 4.5, Order: 1}).Error; err != nil {
		t.Fatalf("seed skill: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/portfolio", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Donghyuk Lee", "Go"} {
		if !strings.Contains(body, want) {
			t.Fatalf("portfolio body missing %q: %s", want, body)
		}
	}
}
