package publish

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// sendQueueSize 每个连接的发送队列深度
// 8 秒一条指标的节奏下 16 条约等于两分钟积压，超过即视为死连接。
const sendQueueSize = 16

// client 一个已连接的看板
// 连接的所有写操作只发生在它自己的 writePump 里，send 队列是
// 广播方和写方之间唯一的交接点。
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub WebSocket 实时指标推送
// 看板连上来后每个完成的窗口推一条指标记录。发送队列塞满的连接
// 直接摘除，慢消费端不允许拖住处理循环。
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]bool
	latest  []byte
}

// NewHub 创建推送中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 看板来源不固定（本机/局域网），不做 Origin 校验
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

// ServeWS WebSocket 升级入口
// 新连接先在自己的队列里排上最近一条指标，之后的广播按序跟在后面。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}

	h.mu.Lock()
	h.clients[c] = true
	if h.latest != nil {
		c.send <- h.latest
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("clients", count),
	)

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast 向所有连接推送一条指标记录
// 队列已满说明对端早就不读了，当场摘除而不是阻塞等它。
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	h.latest = payload
	var stalled []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.remove(c)
	}
}

// Serve 启动 HTTP 监听，阻塞到上下文取消
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Close()
		h.closeAll()
	}()

	h.logger.Info("WebSocket feed listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// writePump 连接的唯一写者，消费发送队列直到队列关闭或写失败
func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

// readPump 读取循环只为发现断开；客户端消息内容被忽略
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// remove 摘除连接并关闭它的发送队列
// send 的所有写入都在 clients 锁内发生，摘除后不会再有人向已关闭
// 的队列写入；连接本体由 writePump 退出时关闭。
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Info("WebSocket client disconnected",
			zap.String("remote", c.conn.RemoteAddr().String()),
			zap.Int("clients", len(h.clients)),
		)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}
