package BSnakeServer

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"BSnake/game"
	"BSnake/input"
	"BSnake/session"

	"github.com/HandyGold75/GOLib/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	qrcode "github.com/skip2/go-qrcode"
)

type (
	Server struct {
		Addr        string
		Config      game.Config
		Store       game.Store
		MaxSessions int
		IdleTimeout time.Duration
		Lgr         *logger.Logger

		ctx      context.Context
		mu       sync.Mutex
		sessions map[string]*session.Session
	}

	errServer struct{ TooManySessions, UnknownSession, UnknownSymbol error }

	createdResponse struct {
		ID       string        `json:"id"`
		Grid     int           `json:"grid"`
		PeriodMs int64         `json:"periodMs"`
		Snapshot game.Snapshot `json:"snapshot"`
	}

	inputRequest struct {
		Symbol string `json:"symbol"`
	}

	inputResponse struct {
		Accepted bool          `json:"accepted"`
		Snapshot game.Snapshot `json:"snapshot"`
	}
)

var (
	ErrServer = errServer{
		TooManySessions: errors.New("too many sessions"),
		UnknownSession:  errors.New("unknown session"),
		UnknownSymbol:   errors.New("unknown input symbol"),
	}

	heartbeat = 15 * time.Second
)

//go:embed static
var static embed.FS

func NewServer(addr string, cfg game.Config, st game.Store, maxSessions int, lgr *logger.Logger) *Server {
	sv := &Server{
		Addr:        addr,
		Config:      cfg,
		Store:       st,
		MaxSessions: maxSessions,
		IdleTimeout: 10 * time.Minute,
		Lgr:         lgr,
		ctx:         context.Background(),
		sessions:    map[string]*session.Session{},
	}

	if lgr != nil {
		lgr.MessageCLIHook = func(msg string) { sv.printStats() }
	}

	return sv
}

func (sv *Server) log(verbosity, action string, msg any) {
	if sv.Lgr == nil {
		return
	}
	sv.Lgr.Log(verbosity, action, msg)
}

func (sv *Server) printStats() {
	width := 0
	if sv.Lgr != nil {
		width = sv.Lgr.CharCountVerbosity
	}
	fmt.Printf("["+time.Now().Format(time.DateTime)+"] %-"+strconv.Itoa(width)+"v Sessions: %v      \r", "stats", sv.SessionCount())
}

func (sv *Server) SessionCount() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return len(sv.sessions)
}

func (sv *Server) Session(id string) (*session.Session, error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	ss, ok := sv.sessions[id]
	if !ok {
		return &session.Session{}, ErrServer.UnknownSession
	}
	return ss, nil
}

// CreateSession builds the session outside mu; anything that logs must not
// hold it since the CLI hook reads the session count.
func (sv *Server) CreateSession() (*session.Session, error) {
	if sv.MaxSessions > 0 && sv.SessionCount() >= sv.MaxSessions {
		return &session.Session{}, ErrServer.TooManySessions
	}

	ss, err := session.New(sv.ctx, sv.Config, sv.Store, sv.Lgr)
	if err != nil {
		return &session.Session{}, err
	}

	sv.mu.Lock()
	if sv.MaxSessions > 0 && len(sv.sessions) >= sv.MaxSessions {
		sv.mu.Unlock()
		ss.Close()
		return &session.Session{}, ErrServer.TooManySessions
	}
	sv.sessions[ss.ID] = ss
	sv.mu.Unlock()

	sv.log("medium", "Created", ss.ID)
	return ss, nil
}

func (sv *Server) CloseSession(id string) error {
	sv.mu.Lock()
	ss, ok := sv.sessions[id]
	delete(sv.sessions, id)
	sv.mu.Unlock()

	if !ok {
		return ErrServer.UnknownSession
	}
	ss.Close()
	return nil
}

// Sweep closes every session not seen since IdleTimeout before now. Sessions
// are inspected outside mu.
func (sv *Server) Sweep(now time.Time) int {
	sv.mu.Lock()
	all := slices.Collect(maps.Values(sv.sessions))
	sv.mu.Unlock()

	idle := []*session.Session{}
	for _, ss := range all {
		if ss.Closed() || now.Sub(ss.LastSeen()) > sv.IdleTimeout {
			idle = append(idle, ss)
		}
	}

	sv.mu.Lock()
	stale := []*session.Session{}
	for _, ss := range idle {
		if sv.sessions[ss.ID] == ss {
			stale = append(stale, ss)
			delete(sv.sessions, ss.ID)
		}
	}
	sv.mu.Unlock()

	for _, ss := range stale {
		sv.log("low", "Expired", ss.ID)
		ss.Close()
	}
	return len(stale)
}

func (sv *Server) closeAll() {
	sv.mu.Lock()
	sessions := sv.sessions
	sv.sessions = map[string]*session.Session{}
	sv.mu.Unlock()

	for _, ss := range sessions {
		ss.Close()
	}
}

func (sv *Server) janitor(ctx context.Context) {
	interval := max(time.Second, sv.IdleTimeout/4)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sv.Sweep(now)
			sv.printStats()
		}
	}
}

func (sv *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if sv.Lgr != nil {
		r.Use(middleware.Logger)
	}

	staticFS, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(staticFS)))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", sv.createHandler)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sv.snapshotHandler)
			r.Delete("/", sv.deleteHandler)
			r.Post("/input", sv.inputHandler)
			r.Get("/events", sv.eventsHandler)
			r.Get("/qr.png", sv.qrHandler)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then tears every session down.
func (sv *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sv.ctx = ctx

	httpServer := &http.Server{Addr: sv.Addr, Handler: sv.Router()}

	go sv.janitor(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	sv.log("medium", "Listening", sv.Addr)
	err := httpServer.ListenAndServe()
	cancel()
	sv.closeAll()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// jsonResponse writes the given response as JSON
func jsonResponse(w http.ResponseWriter, response any) {
	jsonResponseWithStatus(w, response, http.StatusOK)
}

// jsonResponseWithStatus writes the given response as JSON with the given status code
func jsonResponseWithStatus(w http.ResponseWriter, response any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (sv *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	ss, err := sv.Session(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return ss, false
	}
	ss.Touch()
	return ss, true
}

func (sv *Server) createHandler(w http.ResponseWriter, r *http.Request) {
	ss, err := sv.CreateSession()
	if errors.Is(err, ErrServer.TooManySessions) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	} else if err != nil {
		sv.log("high", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponseWithStatus(w, createdResponse{
		ID:       ss.ID,
		Grid:     sv.Config.GridSize,
		PeriodMs: sv.Config.TickPeriod.Milliseconds(),
		Snapshot: ss.Snapshot(),
	}, http.StatusCreated)
}

func (sv *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	ss, ok := sv.sessionFor(w, r)
	if !ok {
		return
	}
	jsonResponse(w, ss.Snapshot())
}

func (sv *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := sv.CloseSession(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (sv *Server) inputHandler(w http.ResponseWriter, r *http.Request) {
	ss, ok := sv.sessionFor(w, r)
	if !ok {
		return
	}

	req := inputRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	sym, ok := input.ParseSymbol(req.Symbol)
	if !ok {
		http.Error(w, ErrServer.UnknownSymbol.Error(), http.StatusBadRequest)
		return
	}

	jsonResponse(w, inputResponse{Accepted: ss.Input(sym), Snapshot: ss.Snapshot()})
}

func writeEvent(w http.ResponseWriter, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// eventsHandler streams every snapshot of a session. A client that cannot keep
// up loses frames instead of stalling the tick.
func (sv *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	ss, ok := sv.sessionFor(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames := make(chan game.Snapshot, 8)
	unsubscribe := ss.Subscribe(func(snap game.Snapshot) {
		select {
		case frames <- snap:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, ss.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if ss.Closed() {
				return
			}
			ss.Touch()
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap := <-frames:
			ss.Touch()
			if err := writeEvent(w, snap); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (sv *Server) qrHandler(w http.ResponseWriter, r *http.Request) {
	ss, ok := sv.sessionFor(w, r)
	if !ok {
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	png, err := qrcode.Encode(scheme+"://"+r.Host+"/?session="+ss.ID, qrcode.Medium, 256)
	if err != nil {
		sv.log("high", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
