package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/runloop"
	"github.com/matt-g-everett/ledflow/stream"
)

const loopTimeout = 2 * time.Second

// Api exposes the timeline controller over HTTP and serves the client pages.
type Api struct {
	loop       *runloop.Loop
	controller *stream.Controller
	staticDir  string
	mux        *http.ServeMux
}

func NewApi(loop *runloop.Loop, controller *stream.Controller, staticDir string) *Api {
	a := new(Api)
	a.loop = loop
	a.controller = controller
	a.staticDir = staticDir

	a.mux = http.NewServeMux()
	a.mux.HandleFunc("GET /timeline", a.handleStatus)
	a.mux.HandleFunc("POST /timeline/offset", a.handleOffset)
	a.mux.HandleFunc("POST /timeline/{command}", a.handleCommand)
	if staticDir != "" {
		a.mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return a
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled.
func (a *Api) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), loopTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", addr).Info("Listening...")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *Api) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.execute(w, r, nil)
}

func (a *Api) handleOffset(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		http.Error(w, "invalid offset time", http.StatusBadRequest)
		return
	}
	a.execute(w, r, &stream.Command{Type: "offset", Time: t})
}

func (a *Api) handleCommand(w http.ResponseWriter, r *http.Request) {
	a.execute(w, r, &stream.Command{Type: r.PathValue("command")})
}

// execute runs cmd on the loop and replies with the resulting status.
func (a *Api) execute(w http.ResponseWriter, r *http.Request, cmd *stream.Command) {
	ctx, cancel := context.WithTimeout(r.Context(), loopTimeout)
	defer cancel()

	var status stream.Status
	var cmdErr error
	err := a.loop.Do(ctx, func() {
		if cmd != nil {
			if cmdErr = a.controller.Execute(*cmd); cmdErr != nil {
				return
			}
		}
		status = a.controller.Status()
	})
	if err != nil {
		logrus.WithError(err).Warn("control loop unavailable")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if cmdErr != nil {
		http.Error(w, cmdErr.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logrus.WithError(err).Warn("write status")
	}
}
