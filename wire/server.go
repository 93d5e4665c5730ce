package wire

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xraph/forge"

	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/stream"
)

// Server is the wire protocol server that handles WebSocket, SSE, and
// HTTP RPC connections. It bridges the Atelier engine and the stream
// broker to connected clients using frame-based communication.
type Server struct {
	broker       *stream.Broker
	handler      *Handler
	defaultCodec Codec
	conns        *ConnectionManager
	logger       *slog.Logger
	basePath     string
}

// NewServer creates a new wire server.
func NewServer(broker *stream.Broker, handler *Handler, opts ...Option) *Server {
	s := &Server{
		broker:       broker,
		handler:      handler,
		defaultCodec: &JSONCodec{},
		conns:        NewConnectionManager(),
		logger:       slog.Default(),
		basePath:     "/wire",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts wire endpoints on a Forge router.
func (s *Server) RegisterRoutes(router forge.Router) {
	// Primary: WebSocket
	if err := router.WebSocket(s.basePath, s.handleWebSocket); err != nil {
		s.logger.Error("failed to register wire WebSocket", slog.String("error", err.Error()))
	}

	// Fallback: SSE for read-only subscriptions (uses EventStream handler)
	if err := router.EventStream(s.basePath+"/sse", s.handleSSE); err != nil {
		s.logger.Error("failed to register wire SSE", slog.String("error", err.Error()))
	}

	// One-shot: HTTP RPC
	if err := router.POST(s.basePath+"/rpc", s.handleHTTPRPC); err != nil {
		s.logger.Error("failed to register wire RPC", slog.String("error", err.Error()))
	}
}

// handleWebSocket is the main WebSocket connection handler. The wire
// format is negotiated via the "format" query parameter; subscriptions
// are established with subscribe frames after connect.
func (s *Server) handleWebSocket(ctx forge.Context, conn forge.Connection) error {
	connID := conn.ID()

	codec := s.defaultCodec
	if format := ctx.Query("format"); format != "" {
		codec = GetCodec(format)
	}

	wireConn := NewConnection(connID, codec)
	s.conns.Add(wireConn)
	s.logger.Info("wire WebSocket connected",
		slog.String("conn_id", connID),
		slog.String("codec", codec.Name()),
		slog.Int("active", s.conns.Count()),
	)

	// Create a subscriber for this connection and start a goroutine
	// to forward broker events to the WebSocket.
	sub := s.broker.Subscribe(connID)
	go s.forwardEvents(conn, codec, sub)

	defer func() {
		s.broker.RemoveSubscriber(connID)
		s.conns.Remove(connID)
		s.logger.Info("wire WebSocket disconnected",
			slog.String("conn_id", connID),
			slog.Int("topics", len(wireConn.Watched())),
			slog.Int64("dropped_events", sub.Dropped()),
			slog.Int("active", s.conns.Count()),
		)
	}()

	// Frame processing loop.
	for {
		data, err := conn.Read()
		if err != nil {
			return nil // Connection closed.
		}

		wireConn.Touch()

		frame, decErr := codec.Decode(data)
		if decErr != nil {
			errFrame := NewErrorFrame("", ErrCodeBadRequest, "invalid frame: "+decErr.Error())
			if writeErr := s.writeFrame(conn, codec, errFrame); writeErr != nil {
				s.logger.Warn("failed to write error frame", slog.String("error", writeErr.Error()))
			}
			continue
		}

		// Handle ping/pong.
		if frame.Type == FramePing {
			pong := &Frame{
				ID:        GenerateFrameID(),
				Type:      FramePong,
				CorrelID:  frame.ID,
				Timestamp: frame.Timestamp,
			}
			if writeErr := s.writeFrame(conn, codec, pong); writeErr != nil {
				s.logger.Warn("failed to write pong frame", slog.String("error", writeErr.Error()))
			}
			continue
		}

		// Handle credits replenishment.
		if frame.Credits > 0 {
			sub.AddCredits(int64(frame.Credits))
			continue
		}

		// Dispatch to handler.
		respFrame := s.handler.Handle(ctx.Context(), frame)
		if respFrame != nil {
			// Handle subscribe/unsubscribe side effects.
			if frame.Method == MethodSubscribe && respFrame.Type == FrameResponse {
				var subReq SubscribeRequest
				if json.Unmarshal(frame.Data, &subReq) == nil {
					s.broker.SubscribeTo(connID, subReq.Channel)
					wireConn.Watch(subReq.Channel)
					if subReq.Credits > 0 {
						sub.AddCredits(int64(subReq.Credits))
					}
				}
			} else if frame.Method == MethodUnsubscribe && respFrame.Type == FrameResponse {
				var unsubReq UnsubscribeRequest
				if json.Unmarshal(frame.Data, &unsubReq) == nil {
					s.broker.Unsubscribe(connID, unsubReq.Channel)
					wireConn.Unwatch(unsubReq.Channel)
				}
			}

			if writeErr := s.writeFrame(conn, codec, respFrame); writeErr != nil {
				s.logger.Warn("failed to write response frame", slog.String("error", writeErr.Error()))
			}
		}
	}
}

// forwardEvents reads from the subscriber channel and writes events
// to the WebSocket connection.
func (s *Server) forwardEvents(conn forge.Connection, codec Codec, sub *stream.Subscriber) {
	for evt := range sub.C() {
		evtFrame, err := NewEventFrame(evt.Topic, evt)
		if err != nil {
			continue
		}
		if writeErr := s.writeFrame(conn, codec, evtFrame); writeErr != nil {
			return // Connection gone.
		}
	}
}

// writeFrame encodes and writes a frame to a Forge connection.
func (s *Server) writeFrame(conn forge.Connection, codec Codec, frame *Frame) error {
	if codec.Name() == CodecNameJSON {
		return conn.WriteJSON(frame)
	}
	data, err := codec.Encode(frame)
	if err != nil {
		return err
	}
	return conn.Write(data)
}

// handleSSE serves read-only Server-Sent Events for clients that
// cannot establish WebSocket connections.
func (s *Server) handleSSE(ctx forge.Context, sseStream forge.Stream) error {
	channel := ctx.Query("channel")
	if channel == "" {
		return fmt.Errorf("wire: SSE channel parameter required")
	}
	if err := stream.ValidateTopic(channel); err != nil {
		return err
	}

	connID := id.NewSubscriberID().String()
	sub := s.broker.Subscribe(connID, channel)
	defer s.broker.RemoveSubscriber(connID)

	for {
		select {
		case evt, ok := <-sub.C():
			if !ok {
				return nil
			}
			if sendErr := sseStream.SendJSON(string(evt.Type), evt); sendErr != nil {
				return sendErr
			}
			if flushErr := sseStream.Flush(); flushErr != nil {
				return flushErr
			}
		case <-sseStream.Context().Done():
			return nil
		}
	}
}

// handleHTTPRPC handles one-shot HTTP RPC requests for simple operations.
func (s *Server) handleHTTPRPC(ctx forge.Context) error {
	var frame Frame
	if err := ctx.Bind(&frame); err != nil {
		return ctx.Status(400).JSON(NewErrorFrame("", ErrCodeBadRequest, "invalid request body"))
	}

	resp := s.handler.Handle(ctx.Context(), &frame)
	if resp == nil {
		return ctx.NoContent(204)
	}

	status := 200
	if resp.Type == FrameErr && resp.Error != nil {
		status = resp.Error.Code
		if status < 100 || status > 599 {
			status = 500
		}
	}

	return ctx.Status(status).JSON(resp)
}
