package config

import (
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
)

// Server holds HTTP server and index refresh configuration
type Server struct {
	addr            string
	chatRate        float64
	chatBurst       int
	allowedOrigins  []string
	refreshInterval time.Duration
	watch           bool
}

func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_ADDR"),
			Destination: &s.addr,
		},
		&cli.FloatFlag{
			Name:        "chat-rate",
			Usage:       "Chat requests per second per client (0 disables rate limiting)",
			Value:       1,
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_CHAT_RATE"),
			Destination: &s.chatRate,
		},
		&cli.IntFlag{
			Name:        "chat-burst",
			Usage:       "Chat request burst per client",
			Value:       5,
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_CHAT_BURST"),
			Destination: &s.chatBurst,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "CORS allowed origin (repeatable, all origins when empty)",
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_ALLOWED_ORIGINS"),
			Destination: &s.allowedOrigins,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Rebuild the index periodically (0 disables)",
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_REFRESH_INTERVAL"),
			Destination: &s.refreshInterval,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Usage:       "Reload content and rebuild the index when the content file changes",
			Value:       true,
			Category:    "Server",
			Sources:     cli.EnvVars("FOLIO_WATCH"),
			Destination: &s.watch,
		},
	}
}

func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.addr),
		slog.Float64("chat_rate", s.chatRate),
		slog.Int("chat_burst", s.chatBurst),
		slog.Any("allowed_origins", s.allowedOrigins),
		slog.Duration("refresh_interval", s.refreshInterval),
		slog.Bool("watch", s.watch),
	)
}

func (s *Server) Addr() string                   { return s.addr }
func (s *Server) ChatRate() float64              { return s.chatRate }
func (s *Server) ChatBurst() int                 { return s.chatBurst }
func (s *Server) AllowedOrigins() []string       { return s.allowedOrigins }
func (s *Server) RefreshInterval() time.Duration { return s.refreshInterval }
func (s *Server) Watch() bool                    { return s.watch }
