package hammertest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/rdxrw/internal/hammer"
)

// NewServer serves the bridge protocol on top of engine. Every getWeight
// response is preceded by an info-level log notification naming the scheme.
// The websocket URL is returned alongside the server.
func NewServer(engine hammer.Session) (*httptest.Server, string) {
	upgrader := websocket.Upgrader{Subprotocols: []string{hammer.Subprotocol}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req hammer.Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method == hammer.MethodGetWeight {
				params, _ := json.Marshal(hammer.LogParams{Level: "info", Msg: "computing weight"})
				if err := conn.WriteJSON(hammer.Message{Method: hammer.MethodLog, Params: params}); err != nil {
					return
				}
			}
			if err := conn.WriteJSON(serve(r.Context(), engine, req)); err != nil {
				return
			}
		}
	}))

	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func serve(ctx context.Context, engine hammer.Session, req hammer.Request) hammer.Message {
	msg := hammer.Message{ID: req.ID}
	result, err := dispatch(ctx, engine, req)
	if err != nil {
		msg.Error = &hammer.WireError{Message: err.Error()}
		return msg
	}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			msg.Error = &hammer.WireError{Message: err.Error()}
			return msg
		}
		msg.Result = raw
	}
	return msg
}

func dispatch(ctx context.Context, engine hammer.Session, req hammer.Request) (any, error) {
	switch req.Method {
	case hammer.MethodConfigure:
		var setup hammer.RunSetup
		if err := json.Unmarshal(req.Params, &setup); err != nil {
			return nil, err
		}
		return nil, engine.Configure(ctx, setup)
	case hammer.MethodInitRun:
		return nil, engine.InitRun(ctx)
	case hammer.MethodInitEvent:
		return nil, engine.InitEvent(ctx)
	case hammer.MethodAddProcess:
		var p hammer.ProcessParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		g, err := hammer.DecodeProcess(p)
		if err != nil {
			return nil, err
		}
		h, err := engine.AddProcess(ctx, g)
		if err != nil {
			return nil, err
		}
		return hammer.HandleResult{Handle: h}, nil
	case hammer.MethodProcessEvent:
		return nil, engine.ProcessEvent(ctx)
	case hammer.MethodGetWeight:
		var p hammer.WeightParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		w, err := engine.Weight(ctx, p.Scheme)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return hammer.WeightResult{}, nil
		}
		return hammer.WeightResult{Weight: &w}, nil
	}
	return nil, fmt.Errorf("unknown method %q", req.Method)
}
