package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
	"github.com/matzehuels/panegrid/pkg/render"
	"github.com/matzehuels/panegrid/pkg/store"
)

// placeRequest is the body of /v1/place and /v1/rank. Missing grid
// dimensions default to the configured grid and a missing size to 1.
type placeRequest struct {
	Columns  int   `json:"columns"`
	Rows     int   `json:"rows"`
	Occupied []int `json:"occupied"`
	Size     *int  `json:"size"`
}

func (p placeRequest) args(def placement.Grid) (placement.Grid, placement.Occupied, int) {
	g := placement.Grid{Columns: p.Columns, Rows: p.Rows}
	if g.Columns == 0 && g.Rows == 0 {
		g = def
	}
	size := 1
	if p.Size != nil {
		size = *p.Size
	}
	return g, placement.NewOccupied(p.Occupied...), size
}

type placeResponse struct {
	Cell     int  `json:"cell"`
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Fallback bool `json:"fallback"`
}

type rankResponse struct {
	Candidates []placement.Candidate `json:"candidates"`
}

type registerRequest struct {
	ID   string  `json:"id"`
	Cell *int    `json:"cell"`
	Auto bool    `json:"auto"`
	Size int     `json:"size"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

func (req registerRequest) request() (registry.Request, error) {
	switch {
	case req.Auto:
		return registry.AutoPlace(req.Size), nil
	case req.Cell != nil:
		return registry.At(*req.Cell), nil
	}
	return registry.Request{}, perrors.New(perrors.ErrCodeInvalidArgument, "either cell or auto is required")
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// windowResponse is a window together with the cell it occupies.
type windowResponse struct {
	registry.Window
	Cell int `json:"cell"`
}

type windowsResponse struct {
	Windows []windowResponse `json:"windows"`
}

type occupiedResponse struct {
	Occupied placement.Occupied `json:"occupied"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	g, occupied, size := req.args(s.cfg.Geometry.Grid)
	cell, err := placement.FindOptimalPosition(g, occupied, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fallback := placement.IsFallback(g, occupied, size, cell)
	if fallback {
		s.logger.Warn("no eligible cell, using fallback", "columns", g.Columns, "rows", g.Rows, "occupied", len(occupied), "size", size)
	}
	row, col := g.Coord(cell)
	writeJSON(w, http.StatusOK, placeResponse{Cell: cell, Row: row, Col: col, Fallback: fallback})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	g, occupied, size := req.args(s.cfg.Geometry.Grid)
	ranked, err := placement.Rank(g, occupied, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ranked == nil {
		ranked = []placement.Candidate{}
	}
	writeJSON(w, http.StatusOK, rankResponse{Candidates: ranked})
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	s.withLayout(w, r, false, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		return http.StatusOK, listWindows(reg), nil
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	placeReq, err := req.request()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.withLayout(w, r, true, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		win, err := reg.Register(ctx, req.ID, placeReq, registry.Size{W: req.W, H: req.H})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, windowResponse{Window: win, Cell: reg.CellOf(win)}, nil
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch registry.Patch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	s.withLayout(w, r, true, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		win, err := reg.Update(id, patch)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, windowResponse{Window: win, Cell: reg.CellOf(win)}, nil
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withLayout(w, r, true, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		return http.StatusNoContent, nil, reg.Remove(id)
	})
}

func (s *Server) handleOccupied(w http.ResponseWriter, r *http.Request) {
	s.withLayout(w, r, false, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		return http.StatusOK, occupiedResponse{Occupied: reg.OccupiedCells()}, nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.withLayout(w, r, true, func(ctx context.Context, reg *registry.Registry) (int, any, error) {
		if err := reg.Resize(req.Width, req.Height); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, listWindows(reg), nil
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := render.FormatText
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := render.ParseFormat(f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		format = parsed
	}
	opts := render.Options{Scores: r.URL.Query().Has("scores")}
	if v := r.URL.Query().Get("footprint"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, perrors.New(perrors.ErrCodeInvalidArgument, "footprint must be an integer, got %q", v))
			return
		}
		opts.Footprint = n
	}

	var out []byte
	ok := s.loadLayout(w, r, func(ctx context.Context, reg *registry.Registry) error {
		var err error
		out, err = render.Render(reg.Geometry(), reg.List(), opts, format)
		return err
	})
	if !ok {
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func listWindows(reg *registry.Registry) windowsResponse {
	list := reg.List()
	out := windowsResponse{Windows: make([]windowResponse, len(list))}
	for i, win := range list {
		out.Windows[i] = windowResponse{Window: win, Cell: reg.CellOf(win)}
	}
	return out
}

// layoutFunc runs a registry operation and returns the response status and body.
type layoutFunc func(ctx context.Context, reg *registry.Registry) (int, any, error)

// withLayout runs fn against the layout named in the URL under the layout
// lock and writes its result. When save is set the registry is stored
// afterwards.
func (s *Server) withLayout(w http.ResponseWriter, r *http.Request, save bool, fn layoutFunc) {
	var (
		status int
		body   any
	)
	ok := s.loadLayout(w, r, func(ctx context.Context, reg *registry.Registry) error {
		var err error
		status, body, err = fn(ctx, reg)
		if err != nil {
			return err
		}
		if save {
			return store.SaveRegistry(ctx, s.cfg.Store, chi.URLParam(r, "layout"), reg)
		}
		return nil
	})
	if !ok {
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// loadLayout locks and loads the URL's layout, then calls fn. Errors are
// written to w and reported as false.
func (s *Server) loadLayout(w http.ResponseWriter, r *http.Request, fn func(context.Context, *registry.Registry) error) bool {
	ctx := r.Context()
	layout := chi.URLParam(r, "layout")
	if err := perrors.ValidateLayoutName(layout); err != nil {
		s.writeError(w, r, err)
		return false
	}
	geom, err := s.viewport(r)
	if err != nil {
		s.writeError(w, r, err)
		return false
	}

	unlock := s.locks.lock(layout)
	defer unlock()

	reg, err := store.LoadRegistry(ctx, s.cfg.Store, layout, geom, s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return false
	}
	if err := fn(ctx, reg); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// viewport returns the configured geometry with the width and height query
// parameters applied.
func (s *Server) viewport(r *http.Request) (placement.Geometry, error) {
	geom := s.cfg.Geometry
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"width", &geom.Width}, {"height", &geom.Height}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return geom, perrors.New(perrors.ErrCodeInvalidArgument, "%s must be a number, got %q", p.name, v)
		}
		*p.dst = f
	}
	return geom, geom.Validate()
}
