package wire

import "log/slog"

// Option configures a wire Server.
type Option func(*Server)

// WithCodec sets the default codec for the wire server.
// Clients can override via the "format" query parameter on connect.
func WithCodec(codec Codec) Option {
	return func(s *Server) { s.defaultCodec = codec }
}

// WithLogger sets the logger for the wire server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPath sets the base path for wire endpoints.
// Default is "/wire".
func WithPath(path string) Option {
	return func(s *Server) { s.basePath = path }
}
