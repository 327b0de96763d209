// memorybox memory game
//
// A deck of paired faces is dealt face down. The player flips two cards
// per turn; matching pairs stay revealed, mismatched pairs flip back after
// a delay or as soon as the player clicks anywhere. The clock starts on the
// first flip and freezes when the last pair is found.
//
// Features:
// - One session per game ID: /memory/:gameid and /memory/:gameid/ws
// - The server owns the deck and the turn state; browsers only render
// - Every browser attached to a game ID sees the same board
// - Click-anywhere dismissal takes priority over card clicks
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/memorybox/memory"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	minReapInterval = time.Second
)

// Messages coming from clients
type ClientMessage struct {
	Type  string `json:"type" validate:"required,oneof=activate new_game"`    // "activate", "new_game"
	Index *int   `json:"index,omitempty" validate:"omitempty,min=0,max=4095"` // activate; absent for a click outside any card
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type       string `json:"type"` // "session_info"
	GameID     string `json:"game_id"`
	ClientID   string `json:"client_id"`
	Images     bool   `json:"images"` // keys are image URLs rather than text faces
	TotalPairs int    `json:"total_pairs"`
}

// DeckMessage carries the whole board, on connect and on every new deal.
type DeckMessage struct {
	Type string `json:"type"` // "deck"
	memory.Snapshot
}

// CardMessage reports a single card changing state.
type CardMessage struct {
	Type string          `json:"type"` // "card"
	Card memory.CardView `json:"card"`
}

// TurnMessage reports lock and selection changes.
type TurnMessage struct {
	Type            string `json:"type"` // "turn"
	Phase           string `json:"phase"`
	Locked          bool   `json:"locked"`
	AwaitingDismiss bool   `json:"awaiting_dismiss"`
	MatchedPairs    int    `json:"matched_pairs"`
	TotalPairs      int    `json:"total_pairs"`
}

type TimerMessage struct {
	Type  string `json:"type"` // "timer"
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type SparkleMessage struct {
	Type      string            `json:"type"` // "sparkle"
	Index     int               `json:"index"`
	Particles []memory.Particle `json:"particles"`
}

type CompletionMessage struct {
	Type       string `json:"type"` // "completion"
	DurationMS int64  `json:"duration_ms"`
	Elapsed    string `json:"elapsed"`
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan any
}

type inputRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	cfg     *Config
	clock   clockwork.Clock
	clients map[*Client]bool
	game    *memory.Game

	register chan *Client
	unreg    chan *Client
	inputs   chan inputRequest
	tasks    chan func()
	done     chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	lastTurn   TurnMessage
}

func newHub(cfg *Config, clock clockwork.Clock, gameID string) *Hub {
	now := clock.Now()
	h := &Hub{
		id:         gameID,
		cfg:        cfg,
		clock:      clock,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inputs:     make(chan inputRequest),
		tasks:      make(chan func(), 16),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	h.game = memory.New(cfg.keys, memory.NewLoopScheduler(clock, h.post), hubView{h}, cfg.gameOptions())
	h.lastTurn = h.turnMessageLocked()

	return h
}

// post queues fn onto the hub goroutine. It reports false once the hub has
// been closed.
func (h *Hub) post(fn func()) bool {
	select {
	case h.tasks <- fn:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			if !h.attach(c) {
				return
			}

			logf(h.cfg, "GAMES: Client %s attached to %s", c.id, h.id)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = h.clock.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.inputs:
			h.handleInput(req)

		case fn := <-h.tasks:
			h.mu.Lock()
			fn()
			h.broadcastTurnLocked()
			h.mu.Unlock()
		}
	}
}

// attach adds c to the hub and sends it the session and board. It refuses
// clients once closeAll has swept the client list.
func (h *Hub) attach(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(c.send)
		return false
	default:
	}

	h.lastActive = h.clock.Now()
	h.clients[c] = true

	h.sendLocked(c, SessionInfoMessage{
		Type:       "session_info",
		GameID:     h.id,
		ClientID:   c.id,
		Images:     h.cfg.images != "",
		TotalPairs: h.game.TotalPairs(),
	})
	h.sendLocked(c, DeckMessage{
		Type:     "deck",
		Snapshot: h.game.Snapshot(),
	})

	return true
}

func (h *Hub) handleInput(req inputRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = h.clock.Now()

	switch req.msg.Type {
	case "activate":
		outcome := h.game.Activate(req.msg.Index)

		switch outcome {
		case memory.Dismissed:
			logf(h.cfg, "GAMES: Client %s dismissed a mismatch in %s", req.client.id, h.id)
		case memory.Completed:
			logf(h.cfg, "GAMES: Game %s completed in %s", h.id, h.game.Clock().Text())
		}

	case "new_game":
		h.game.Restart()
		logf(h.cfg, "GAMES: Client %s dealt a new deck in %s", req.client.id, h.id)
	}

	h.broadcastTurnLocked()
}

func (h *Hub) turnMessageLocked() TurnMessage {
	turn := h.game.Turn()

	return TurnMessage{
		Type:            "turn",
		Phase:           h.game.Phase().String(),
		Locked:          turn.Locked,
		AwaitingDismiss: turn.AwaitingDismiss,
		MatchedPairs:    turn.MatchedPairs,
		TotalPairs:      h.game.TotalPairs(),
	}
}

// broadcastTurnLocked only sends when the turn state actually moved.
func (h *Hub) broadcastTurnLocked() {
	msg := h.turnMessageLocked()
	if msg == h.lastTurn {
		return
	}

	h.lastTurn = msg
	h.broadcastLocked(msg)
}

func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// closeAll disconnects all clients of this hub and stops its loop (used by reaper).
func (h *Hub) closeAll() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	h.game.Close()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// hubView presents game transitions to every attached client. It is only
// called from the hub goroutine with h.mu held.
type hubView struct {
	h *Hub
}

func (v hubView) DeckReset(cards []memory.CardView) {
	v.h.broadcastLocked(DeckMessage{
		Type: "deck",
		Snapshot: memory.Snapshot{
			Cards:      cards,
			Phase:      memory.Idle.String(),
			TotalPairs: len(cards) / 2,
			Timer:      memory.FormatElapsed(0),
		},
	})
}

func (v hubView) card(c memory.Card) {
	v.h.broadcastLocked(CardMessage{
		Type: "card",
		Card: c.View(),
	})
}

func (v hubView) CardFlipped(c memory.Card) { v.card(c) }

func (v hubView) CardHidden(c memory.Card) { v.card(c) }

func (v hubView) CardMatched(c memory.Card) { v.card(c) }

func (v hubView) TimerDisplay(text string, final bool) {
	v.h.broadcastLocked(TimerMessage{
		Type:  "timer",
		Text:  text,
		Final: final,
	})
}

func (v hubView) Sparkle(c memory.Card, b memory.Burst) {
	v.h.broadcastLocked(SparkleMessage{
		Type:      "sparkle",
		Index:     c.Index,
		Particles: b.Particles,
	})
}

func (v hubView) Completion(d time.Duration, elapsed string) {
	v.h.broadcastLocked(CompletionMessage{
		Type:       "completion",
		DurationMS: d.Milliseconds(),
		Elapsed:    elapsed,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var validate = validator.New()

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, clock clockwork.Clock, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		clock:       clock,
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gm.clock, gameID)
	gm.hubs[gameID] = hub
	go hub.run()

	logf(cfg, "GAMES: Dealt %d pairs for %s", len(cfg.keys), gameID)

	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs that have been idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout. It never sweeps more often than once a second.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := gm.clock.NewTicker(max(gm.idleTimeout/2, minReapInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.reap(gm.clock.Now().Add(time.Hour))
			return
		case <-ticker.Chan():
			gm.reap(gm.clock.Now().Add(-gm.idleTimeout))
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errs <- err
			return
		}

		client := &Client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan any, 32),
		}

		logf(cfg, "SERVE: WebSocket for %s opened by %s (%s)", gameID, realIP(r), client.id)

		go client.writePump()

		select {
		case hub.register <- client:
		case <-hub.done:
			close(client.send)
			return
		}

		client.readPump(cfg, hub)
	}
}

func (c *Client) readPump(cfg *Config, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if err := validate.Struct(msg); err != nil {
			logf(cfg, "GAMES: Ignoring message from %s: %v", c.id, err)
			continue
		}

		select {
		case h.inputs <- inputRequest{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

//go:embed assets/memory/index.html
var indexHTML []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerMemoryGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerMemoryGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(ctx, clockwork.NewRealClock(), cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm, errs))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
