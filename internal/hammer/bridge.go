package hammer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/rdxrw/internal/decay"
)

// RemoteError is a failure reported by the engine for a single call.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Method, e.Message)
}

// BridgeConfig configures a bridge connection.
type BridgeConfig struct {
	URL string
	// Timeout bounds each round trip. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Bridge is an engine session reached over a websocket. Engine log lines
// arrive as notifications and are forwarded to the logger unless the call
// context is quiet.
type Bridge struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	timeout time.Duration
	session string

	// mu serialises calls: one request is in flight at a time.
	mu     sync.Mutex
	nextID uint64

	closeMu sync.Mutex
	closed  bool
}

var _ Session = (*Bridge)(nil)

// Dial opens a new engine session.
func Dial(ctx context.Context, cfg BridgeConfig) (*Bridge, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{Subprotocol},
	}

	session := uuid.New().String()
	header := http.Header{SessionHeader: []string{session}}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrSession, cfg.URL, err)
	}

	logger.Debug("engine session opened", "url", cfg.URL, "session", session)
	return &Bridge{
		conn:    conn,
		logger:  logger.With("session", session[:8]),
		timeout: cfg.Timeout,
		session: session,
	}, nil
}

// SessionID returns the id sent on the handshake.
func (b *Bridge) SessionID() string { return b.session }

// Close ends the session.
func (b *Bridge) Close() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return b.conn.Close()
}

func (b *Bridge) Configure(ctx context.Context, setup RunSetup) error {
	return b.call(ctx, MethodConfigure, setup, nil)
}

func (b *Bridge) InitRun(ctx context.Context) error {
	return b.call(ctx, MethodInitRun, nil, nil)
}

func (b *Bridge) InitEvent(ctx context.Context) error {
	return b.call(ctx, MethodInitEvent, nil, nil)
}

func (b *Bridge) AddProcess(ctx context.Context, g *decay.Graph) (int64, error) {
	var res HandleResult
	if err := b.call(ctx, MethodAddProcess, EncodeProcess(g), &res); err != nil {
		return 0, err
	}
	return res.Handle, nil
}

func (b *Bridge) ProcessEvent(ctx context.Context) error {
	return b.call(ctx, MethodProcessEvent, nil, nil)
}

func (b *Bridge) Weight(ctx context.Context, scheme string) (float64, error) {
	var res WeightResult
	if err := b.call(ctx, MethodGetWeight, WeightParams{Scheme: scheme}, &res); err != nil {
		return 0, err
	}
	if res.Weight == nil {
		return math.NaN(), nil
	}
	return *res.Weight, nil
}

func (b *Bridge) call(ctx context.Context, method string, params, result any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", method, err)
		}
		req.Params = raw
	}
	b.nextID++
	req.ID = b.nextID

	// Closing the connection is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()

	if err := b.conn.WriteJSON(req); err != nil {
		return b.transportError(ctx, "send "+method, err)
	}

	for {
		var msg Message
		if err := b.conn.ReadJSON(&msg); err != nil {
			return b.transportError(ctx, "read "+method, err)
		}

		if msg.Method == MethodLog {
			b.forwardLog(ctx, msg.Params)
			continue
		}
		if msg.ID != req.ID {
			b.logger.Debug("dropping stale engine response", "id", msg.ID, "want", req.ID)
			continue
		}
		if msg.Error != nil {
			return &RemoteError{Method: method, Message: msg.Error.Message}
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("%w: decode %s result: %w", ErrSession, method, err)
			}
		}
		return nil
	}
}

func (b *Bridge) transportError(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s: %w", ErrSession, step, ctx.Err())
	}
	return fmt.Errorf("%w: %s: %w", ErrSession, step, err)
}

func (b *Bridge) forwardLog(ctx context.Context, raw json.RawMessage) {
	if IsQuiet(ctx) {
		return
	}
	var p LogParams
	if err := json.Unmarshal(raw, &p); err != nil {
		b.logger.Debug("malformed engine log notification", "error", err)
		return
	}
	b.logger.Log(ctx, parseEngineLevel(p.Level), p.Msg, "source", "engine")
}

func parseEngineLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
