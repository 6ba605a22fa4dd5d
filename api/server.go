package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/arbitrable-escrow/escrow-api/database"
	"github.com/arbitrable-escrow/escrow-api/escrow"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// API server
type Server struct {
	r           chi.Router
	log         *slog.Logger
	db          *database.Database
	aggregators map[types.Track]*escrow.Aggregator
	reader      escrow.LedgerReader
	opts        ServerOpts
}

type ServerOpts struct {
	Logger      *slog.Logger
	Database    *database.Database
	Aggregators map[types.Track]*escrow.Aggregator
	Reader      escrow.LedgerReader
	Port        string
}

// Create API server
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		r:           chi.NewRouter(),
		log:         opts.Logger,
		db:          opts.Database,
		aggregators: opts.Aggregators,
		reader:      opts.Reader,
		opts:        opts,
	}
	return s, nil
}

// Load routes into server and
// starts HTTP server
func (s *Server) StartServer() {
	s.log.Info("📡 Server Started. API Server is now listening on http://localhost:" + s.opts.Port)
	s.routes()
	if err := http.ListenAndServe(":"+s.opts.Port, s.r); err != nil {
		s.log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// Turns server into http server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Returns JSON response to the API user. HTTP status code
// and data must be provided
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// Returns an error to the API user
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	err = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}
