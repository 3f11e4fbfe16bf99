package trello_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

const (
	testKey   = "3d1522c"
	testToken = "55782c2b664c9c"
)

// mockAPI serves canned Trello responses and attachment files.
type mockAPI struct {
	srv *httptest.Server

	mu           sync.Mutex
	boards       string
	boardsStatus int
	details      map[string]string
	files        map[string][]byte
	detailCalls  map[string]int
	fileQueries  []string
}

func newMockAPI(t *testing.T) *mockAPI {
	m := &mockAPI{
		boards:      "[]",
		details:     make(map[string]string),
		files:       make(map[string][]byte),
		detailCalls: make(map[string]int),
	}
	r := mux.NewRouter()
	r.HandleFunc("/1/members/me/boards", m.listBoards).Methods(http.MethodGet)
	r.HandleFunc("/1/boards/{id}", m.boardDetail).Methods(http.MethodGet)
	r.HandleFunc("/files/{name}", m.file).Methods(http.MethodGet)
	m.srv = httptest.NewServer(r)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockAPI) URL() string {
	return m.srv.URL
}

func (m *mockAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query()
	if q.Get("key") != testKey || q.Get("token") != testToken {
		http.Error(w, "invalid key", http.StatusUnauthorized)
		return false
	}
	return true
}

func (m *mockAPI) listBoards(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}
	q := r.URL.Query()
	if q.Get("boards") != "all" || q.Get("board_fields") != "name" {
		http.Error(w, "unexpected query", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boardsStatus != 0 {
		http.Error(w, "boom", m.boardsStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(m.boards))
}

func (m *mockAPI) boardDetail(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}
	q := r.URL.Query()
	if q.Get("cards") != "all" || q.Get("card_attachments") != "true" {
		http.Error(w, "unexpected query", http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["id"]
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls[id]++
	detail, ok := m.details[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(detail))
}

func (m *mockAPI) file(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileQueries = append(m.fileQueries, r.URL.RawQuery)
	b, ok := m.files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(b)
}

func (m *mockAPI) calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailCalls[id]
}

func (m *mockAPI) setBoards(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards = body
}

func (m *mockAPI) setBoardsStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boardsStatus = code
}

func (m *mockAPI) setDetail(id, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[id] = body
}

func (m *mockAPI) setFile(name string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = b
}

func (m *mockAPI) queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fileQueries...)
}
