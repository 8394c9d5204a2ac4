package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *MethodRegistry
	service  PoolService
	timeout  time.Duration
}

// NewServer creates a new RPC server over the given service
func NewServer(service PoolService, timeout time.Duration) *Server {
	server := &Server{
		registry: NewMethodRegistry(),
		service:  service,
		timeout:  timeout,
	}
	server.registerAllMethods()
	return server
}

// Registry exposes the method registry, for the WebSocket server.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetRequest(w, r)
		return
	}
	s.handlePostRequest(w, r)
}

// handleGetRequest serves simple queries like ?command=server_info
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx := &RpcContext{
		Context:  r.Context(),
		Role:     RoleGuest,
		ClientIP: getClientIP(r),
	}
	result, rpcErr := s.executeMethod(method, nil, ctx)
	s.writeResponse(w, result, rpcErr)
}

// handlePostRequest serves the standard JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, RpcErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, RpcErrorInvalidParams("Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, RpcErrorInvalidParams("Missing method field"))
		return
	}

	// Params is an array with one object.
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	// The role is derived from the socket's peer address, never from
	// X-Forwarded-For: the header is client-controlled.
	role := RoleUser
	if isLoopback(remoteIP(r)) {
		role = RoleAdmin
	}
	ctx := &RpcContext{
		Context:  r.Context(),
		Role:     role,
		ClientIP: getClientIP(r),
	}
	result, rpcErr := s.executeMethod(request.Method, params, ctx)
	s.writeResponse(w, result, rpcErr)
}

// executeMethod dispatches one method call under the server's request
// timeout.
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}
	if ctx.Role < handler.RequiredRole() {
		return nil, RpcErrorForbidden(method)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Context, s.timeout)
	defer cancel()
	ctx.Context = timeoutCtx

	return handler.Handle(ctx, params)
}

// writeResponse writes a response envelope:
// result.status = "success" or "error"
func (s *Server) writeResponse(w http.ResponseWriter, result interface{}, rpcErr *RpcError) {
	response := make(map[string]interface{})

	if rpcErr != nil {
		response["result"] = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
	} else {
		response["result"] = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, rpcErr *RpcError) {
	s.writeResponse(w, nil, rpcErr)
}

// isLoopback reports whether the client address is local. Admin methods
// are only reachable from the daemon's own host, the rippled convention.
func isLoopback(ip string) bool {
	parsed := net.ParseIP(strings.Trim(ip, "[]"))
	return parsed != nil && parsed.IsLoopback()
}

// getClientIP extracts the client address for logging, honoring
// X-Forwarded-For. Informational only; never use it for authorization.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return remoteIP(r)
}

// remoteIP is the peer address of the underlying connection.
func remoteIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
