package rpc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsMaxMessageSize = 512 * 1024
	wsReadTimeout    = 60 * time.Second
	wsWriteTimeout   = 10 * time.Second
	wsPingInterval   = 54 * time.Second
	wsSendBuffer     = 256
)

// WebSocketServer handles WebSocket connections for real-time
// subscriptions and method calls.
type WebSocketServer struct {
	upgrader            websocket.Upgrader
	subscriptionManager *SubscriptionManager
	registry            *MethodRegistry
	connections         map[string]*WebSocketConnection
	connectionsMutex    sync.RWMutex
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID           string
	conn         *websocket.Conn
	sendChannel  chan []byte
	closeChannel chan struct{}
	closeOnce    sync.Once
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWebSocketServer creates a WebSocket server sharing the RPC server's
// method registry.
func NewWebSocketServer(registry *MethodRegistry, manager *SubscriptionManager) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscriptionManager: manager,
		registry:            registry,
		connections:         make(map[string]*WebSocketConnection),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:           generateConnectionID(),
		conn:         conn,
		sendChannel:  make(chan []byte, wsSendBuffer),
		closeChannel: make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()

	ws.subscriptionManager.AddConnection(&Connection{
		ID:            wsConn.ID,
		Subscriptions: make(map[SubscriptionType]bool),
		Accounts:      make(map[string]bool),
		SendChannel:   wsConn.sendChannel,
		CloseChannel:  wsConn.closeChannel,
	})

	go ws.readLoop(wsConn)
	go ws.writeLoop(wsConn)
}

func (ws *WebSocketServer) readLoop(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(wsMaxMessageSize)
	wsConn.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

func (ws *WebSocketServer) writeLoop(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-wsConn.closeChannel:
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-wsConn.sendChannel:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket send failed: %v", err)
				return
			}
		}
	}
}

// handleMessage processes one command. The command and id sit at the top
// level; everything else is the parameter object.
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, nil, RpcErrorInvalidParams("Invalid JSON: "+err.Error()))
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, nil, RpcErrorInvalidParams("Missing command field"))
		return
	}
	id := cmdMap["id"]
	delete(cmdMap, "command")
	delete(cmdMap, "id")

	switch command {
	case "subscribe":
		ws.handleSubscribe(wsConn, id, cmdMap, true)
		return
	case "unsubscribe":
		ws.handleSubscribe(wsConn, id, cmdMap, false)
		return
	}

	params, err := json.Marshal(cmdMap)
	if err != nil {
		ws.sendError(wsConn, id, RpcErrorInternal(err.Error()))
		return
	}

	handler, exists := ws.registry.Get(command)
	if !exists {
		ws.sendError(wsConn, id, RpcErrorMethodNotFound(command))
		return
	}
	ctx := &RpcContext{Context: wsConn.ctx, Role: RoleUser}
	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		ws.sendError(wsConn, id, rpcErr)
		return
	}
	ws.sendResult(wsConn, id, result)
}

type subscribeParams struct {
	Streams  []SubscriptionType `json:"streams"`
	Accounts []string           `json:"accounts"`
}

func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, id interface{}, cmdMap map[string]interface{}, subscribe bool) {
	raw, err := json.Marshal(cmdMap)
	if err != nil {
		ws.sendError(wsConn, id, RpcErrorInternal(err.Error()))
		return
	}
	var p subscribeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		ws.sendError(wsConn, id, RpcErrorInvalidParams(err.Error()))
		return
	}
	for _, stream := range p.Streams {
		if stream != SubOperations && stream != SubPool {
			ws.sendError(wsConn, id, RpcErrorInvalidParams("Unknown stream: "+string(stream)))
			return
		}
	}

	if subscribe {
		ws.subscriptionManager.Subscribe(wsConn.ID, p.Streams, p.Accounts)
	} else {
		ws.subscriptionManager.Unsubscribe(wsConn.ID, p.Streams, p.Accounts)
	}
	ws.sendResult(wsConn, id, map[string]interface{}{})
}

func (ws *WebSocketServer) sendResult(wsConn *WebSocketConnection, id interface{}, result interface{}) {
	response := map[string]interface{}{
		"status": "success",
		"type":   "response",
		"result": result,
	}
	if id != nil {
		response["id"] = id
	}
	ws.send(wsConn, response)
}

func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, id interface{}, rpcErr *RpcError) {
	response := map[string]interface{}{
		"status":        "error",
		"type":          "response",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}
	ws.send(wsConn, response)
}

func (ws *WebSocketServer) send(wsConn *WebSocketConnection, response map[string]interface{}) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket response: %v", err)
		return
	}
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.closeOnce.Do(func() {
		wsConn.cancel()
		close(wsConn.closeChannel)
		wsConn.conn.Close()

		ws.connectionsMutex.Lock()
		delete(ws.connections, wsConn.ID)
		ws.connectionsMutex.Unlock()
		ws.subscriptionManager.RemoveConnection(wsConn.ID)
	})
}

func generateConnectionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "conn-fallback"
	}
	return hex.EncodeToString(b[:])
}
