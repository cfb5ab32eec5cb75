// Package server exposes the collaboration network over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/db"
	"github.com/amonks/sixdegrees/graph"
	"github.com/amonks/sixdegrees/pathfind"
	"github.com/amonks/sixdegrees/resolve"
	"github.com/amonks/sixdegrees/spotify"
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	g       *graph.Graph
	db      *db.DB
	finder  *pathfind.Finder
	catalog builder.Catalog
	log     *log.Logger
}

type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// New returns a Server answering queries against g. The catalog may be nil,
// which limits name resolution and path expansion to what the network
// already knows.
func New(g *graph.Graph, d *db.DB, finder *pathfind.Finder, catalog builder.Catalog, opts ...Option) *Server {
	s := &Server{
		g:       g,
		db:      d,
		finder:  finder,
		catalog: catalog,
		log:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves the query API on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	e := s.routes()

	errs := make(chan error)
	go func() { errs <- e.Start(addr) }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the query API as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/stats", s.handleStats)
	e.GET("/artists", s.handleArtists)
	e.GET("/path", s.handlePath)

	return e
}

type statsResponse struct {
	NodeCount        int     `json:"node_count"`
	EdgeCount        int     `json:"edge_count"`
	AvgDegree        float64 `json:"avg_degree"`
	MaxObservedDepth int64   `json:"max_observed_depth"`
}

type artistResponse struct {
	SpotifyID  string   `json:"spotify_id"`
	Name       string   `json:"name"`
	Popularity int64    `json:"popularity"`
	Followers  int64    `json:"followers"`
	Genres     []string `json:"genres,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
	Depth      int64    `json:"depth"`
	Expanded   bool     `json:"expanded"`
}

type stepResponse struct {
	Artist artistResponse `json:"artist"`
	Songs  []string       `json:"songs,omitempty"`
}

type pathResponse struct {
	Degrees int            `json:"degrees"`
	Steps   []stepResponse `json:"steps"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toArtistResponse(artist data.Artist) artistResponse {
	return artistResponse{
		SpotifyID:  artist.SpotifyID,
		Name:       artist.Name,
		Popularity: artist.Popularity,
		Followers:  artist.Followers,
		Genres:     artist.Genres,
		ImageURL:   artist.ImageURL,
		Depth:      artist.Depth,
		Expanded:   artist.Expanded,
	}
}

func (s *Server) handleStats(c echo.Context) error {
	stats := s.g.Stats()
	return c.JSON(http.StatusOK, statsResponse{
		NodeCount:        stats.NodeCount,
		EdgeCount:        stats.EdgeCount,
		AvgDegree:        stats.AvgDegree,
		MaxObservedDepth: stats.MaxObservedDepth,
	})
}

func (s *Server) handleArtists(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "q is required"})
	}

	artists, err := s.db.SearchArtists(c.Request().Context(), query, 20)
	if err != nil {
		return err
	}

	out := make([]artistResponse, len(artists))
	for i, artist := range artists {
		out[i] = toArtistResponse(artist)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handlePath(c echo.Context) error {
	ctx := c.Request().Context()

	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "from and to are required"})
	}

	fromArtist, err := resolve.Artist(ctx, s.g, s.catalog, from)
	if err != nil {
		return s.resolveError(c, err)
	}
	toArtist, err := resolve.Artist(ctx, s.g, s.catalog, to)
	if err != nil {
		return s.resolveError(c, err)
	}

	// When an endpoint is new, FindPath expands the network; persist
	// what it learned either way.
	grew := !s.g.Has(fromArtist.SpotifyID) || !s.g.Has(toArtist.SpotifyID)

	path, err := s.finder.FindPath(ctx, fromArtist.SpotifyID, toArtist.SpotifyID)
	if grew && s.db != nil {
		if saveErr := s.db.SaveGraph(ctx, s.g); saveErr != nil {
			s.log.Error("saving network after expansion", "err", saveErr)
		}
	}
	if err != nil {
		if errors.Is(err, pathfind.ErrNoPath) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "no path"})
		}
		if errors.Is(err, spotify.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "artist not found"})
		}
		return err
	}

	out := pathResponse{
		Degrees: path.Degrees(),
		Steps:   make([]stepResponse, len(path.Steps)),
	}
	for i, step := range path.Steps {
		out.Steps[i] = stepResponse{Artist: toArtistResponse(step.Artist), Songs: step.Songs}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) resolveError(c echo.Context, err error) error {
	if errors.Is(err, spotify.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "artist not found"})
	}
	return err
}
