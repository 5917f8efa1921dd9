// Package web serves documents over a WebSocket JSON-RPC connection. Every
// edit is applied incrementally and the resulting token change is broadcast
// to all connected clients.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/languages"
	"github.com/standardbeagle/relex/internal/lexer"
	"github.com/standardbeagle/relex/internal/version"
)

// Server provides the HTTP + WebSocket document server.
type Server struct {
	registry *languages.Registry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients []*wsClient
	docs    map[string]*document.Document
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// EditNotification is broadcast after every successful change
type EditNotification struct {
	Name   string              `json:"name"`
	Edits  []*lexer.EditResult `json:"edits"`
	Tokens int                 `json:"tokens"`
	Length int                 `json:"length"`
}

// NewServer creates a web server resolving languages through registry.
func NewServer(registry *languages.Registry) *Server {
	return &Server{
		registry: registry,
		docs:     make(map[string]*document.Document),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/healthz":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"version":   version.Version,
			"documents": len(s.Documents()),
		})
	default:
		http.NotFound(w, r)
	}
}

// Documents returns the open document names, sorted
func (s *Server) Documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document returns the named document, or nil
func (s *Server) Document(name string) *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[name]
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()
	debug.LogServer("client connected from %s\n", r.RemoteAddr)

	defer func() {
		conn.Close()
		s.mu.Lock()
		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		debug.LogServer("client %s disconnected\n", r.RemoteAddr)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		resp := s.handleRPC(req)
		data, _ := json.Marshal(resp)
		client.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()
	}
}

func (s *Server) handleRPC(req rpcRequest) rpcResponse {
	debug.LogServer("rpc %s\n", req.Method)
	switch req.Method {
	case "open":
		return s.rpcOpen(req)
	case "close":
		return s.rpcClose(req)
	case "insert":
		return s.rpcInsert(req)
	case "remove":
		return s.rpcRemove(req)
	case "replace":
		return s.rpcReplace(req)
	case "tokens":
		return s.rpcTokens(req)
	case "dump":
		return s.rpcDump(req)
	case "languages":
		return rpcResponse{ID: req.ID, Result: map[string]any{"languages": s.registry.Names()}}
	case "version":
		return rpcResponse{ID: req.ID, Result: map[string]string{"version": version.Version, "build": version.BuildID()}}
	default:
		return rpcResponse{
			ID:    req.ID,
			Error: &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
}

func invalidParams(req rpcRequest, err error) rpcResponse {
	return rpcResponse{ID: req.ID, Error: &rpcError{Code: codeInvalidParams, Message: err.Error()}}
}

func serverError(req rpcRequest, err error) rpcResponse {
	return rpcResponse{ID: req.ID, Error: &rpcError{Code: codeServerError, Message: err.Error()}}
}

// lookup resolves the document named in params
func (s *Server) lookup(req rpcRequest, p any, name func() string) (*document.Document, *rpcResponse) {
	if err := json.Unmarshal(req.Params, p); err != nil {
		resp := invalidParams(req, err)
		return nil, &resp
	}
	doc := s.Document(name())
	if doc == nil {
		resp := serverError(req, fmt.Errorf("document %q is not open", name()))
		return nil, &resp
	}
	return doc, nil
}

func (s *Server) rpcOpen(req rpcRequest) rpcResponse {
	var p struct {
		Name     string `json:"name"`
		Language string `json:"language"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return invalidParams(req, err)
	}
	if p.Name == "" {
		return invalidParams(req, fmt.Errorf("name is required"))
	}
	lang, err := s.registry.Lookup(p.Language)
	if err != nil {
		return serverError(req, err)
	}
	doc, err := document.New(p.Text, lang)
	if err != nil {
		return serverError(req, err)
	}

	s.mu.Lock()
	s.docs[p.Name] = doc
	s.mu.Unlock()

	return rpcResponse{ID: req.ID, Result: map[string]any{
		"name":     p.Name,
		"language": lang.Name(),
		"tokens":   doc.Views(),
	}}
}

func (s *Server) rpcClose(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	if _, resp := s.lookup(req, &p, func() string { return p.Name }); resp != nil {
		return *resp
	}
	s.mu.Lock()
	delete(s.docs, p.Name)
	s.mu.Unlock()
	return rpcResponse{ID: req.ID, Result: map[string]string{"status": "closed"}}
}

func (s *Server) rpcInsert(req rpcRequest) rpcResponse {
	var p struct {
		Name   string `json:"name"`
		Offset int    `json:"offset"`
		Text   string `json:"text"`
	}
	doc, resp := s.lookup(req, &p, func() string { return p.Name })
	if resp != nil {
		return *resp
	}
	res, err := doc.Insert(p.Offset, p.Text)
	if err != nil {
		return editFailed(req, p.Name, doc, err)
	}
	return s.edited(req, p.Name, doc, res)
}

func (s *Server) rpcRemove(req rpcRequest) rpcResponse {
	var p struct {
		Name   string `json:"name"`
		Offset int    `json:"offset"`
		Length int    `json:"length"`
	}
	doc, resp := s.lookup(req, &p, func() string { return p.Name })
	if resp != nil {
		return *resp
	}
	res, err := doc.Remove(p.Offset, p.Length)
	if err != nil {
		return editFailed(req, p.Name, doc, err)
	}
	return s.edited(req, p.Name, doc, res)
}

func (s *Server) rpcReplace(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}
	doc, resp := s.lookup(req, &p, func() string { return p.Name })
	if resp != nil {
		return *resp
	}
	results, err := doc.Replace(p.Text)
	if err != nil {
		return editFailed(req, p.Name, doc, err)
	}
	return s.edited(req, p.Name, doc, results...)
}

// editFailed rebuilds a document whose tokens the failed edit left
// indeterminate, so the next edit on it can succeed.
func editFailed(req rpcRequest, name string, doc *document.Document, err error) rpcResponse {
	if doc.Broken() == nil {
		return serverError(req, err)
	}
	if rebuildErr := doc.Rebuild(); rebuildErr != nil {
		debug.Broken(debug.Server, "rebuild of %s failed: %v\n", name, rebuildErr)
		return serverError(req, errors.NewMultiError([]error{err, rebuildErr}))
	}
	debug.LogServer("rebuilt %s after failed edit\n", name)
	return serverError(req, err)
}

func (s *Server) edited(req rpcRequest, name string, doc *document.Document, results ...*lexer.EditResult) rpcResponse {
	stats := doc.Stats()
	n := EditNotification{
		Name:   name,
		Edits:  results,
		Tokens: stats.Tokens,
		Length: stats.Length,
	}
	s.Broadcast("edited", n)
	return rpcResponse{ID: req.ID, Result: n}
}

func (s *Server) rpcTokens(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	doc, resp := s.lookup(req, &p, func() string { return p.Name })
	if resp != nil {
		return *resp
	}
	return rpcResponse{ID: req.ID, Result: map[string]any{"tokens": doc.Views()}}
}

func (s *Server) rpcDump(req rpcRequest) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	doc, resp := s.lookup(req, &p, func() string { return p.Name })
	if resp != nil {
		return *resp
	}
	return rpcResponse{ID: req.ID, Result: map[string]string{"text": doc.String(), "dump": doc.Dump()}}
}

// Broadcast sends a notification to all connected WebSocket clients.
func (s *Server) Broadcast(method string, params any) {
	msg, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	clients := append([]*wsClient(nil), s.clients...)
	s.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
		c.mu.Unlock()
	}
}
