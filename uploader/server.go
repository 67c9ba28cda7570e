package uploader

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Server hosts the upload_batch HTTP function.
type Server struct {
	cfg       Config
	store     EchoStore
	moderator Moderator
	bundler   Bundler
	logger    zerolog.Logger
}

func NewServer(cfg Config, store EchoStore, moderator Moderator, bundler Bundler, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		moderator: moderator,
		bundler:   bundler,
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUploadBatch)
	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.ListenAddr()).Msg("listening")
	return http.ListenAndServe(s.cfg.ListenAddr(), s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
