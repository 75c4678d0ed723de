// Package api serves the loader over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/logger"
)

const DefaultMaxUploadBytes = 512 << 20

type Config struct {
	Loader *loader.Loader
	// Blobs serves GET /v1/blobs/:token. It must be the store the loader
	// creates handles in.
	Blobs *handle.MemoryStore
	// LoadsPerSecond and LoadBurst bound the upload endpoints. Zero
	// disables the limit.
	LoadsPerSecond float64
	LoadBurst      int
	MaxUploadBytes int64
	Logger         logger.Logger
}

type Server struct {
	loader    *loader.Loader
	blobs     *handle.MemoryStore
	scenes    *SceneStore
	limiter   *rate.Limiter
	maxUpload int64
	log       logger.Logger
	clock     func() time.Time
}

func NewServer(cfg Config) *Server {
	s := &Server{
		loader:    cfg.Loader,
		blobs:     cfg.Blobs,
		scenes:    NewSceneStore(),
		maxUpload: cfg.MaxUploadBytes,
		log:       cfg.Logger,
		clock:     time.Now,
	}
	if s.maxUpload == 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if cfg.LoadsPerSecond > 0 {
		burst := max(cfg.LoadBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.LoadsPerSecond), burst)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	limit := admit(s.limiter)

	e.POST("/v1/models", s.handleCreateScene, limit)
	e.GET("/v1/models", s.handleListScenes)
	e.GET("/v1/models/:id", s.handleGetScene)
	e.DELETE("/v1/models/:id", s.handleDeleteScene)
	e.GET("/v1/blobs/:token", s.handleGetBlob)
	e.POST("/v1/inspect", s.handleInspect, limit)
}

// Close releases every scene the server still holds.
func (s *Server) Close() int {
	return s.loader.Close()
}

func (s *Server) handleCreateScene(c *echo.Context) error {
	if s.loader == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "loader not configured", "")
	}
	f, err := readUpload(c, s.maxUpload)
	if err != nil {
		return s.writeUploadError(c, err)
	}

	sc, err := s.loader.Load(c.Request().Context(), f)
	if err != nil {
		s.log.Warn("load failed", "file", f.Name, "error", err)
		return writeLoadError(c, err)
	}

	now := s.clock()
	s.scenes.Put(sc, now)
	return writeJSON(c, http.StatusCreated, NewSceneView(sc, now))
}

func (s *Server) handleListScenes(c *echo.Context) error {
	recs := s.scenes.List()
	list := SceneList{Object: "list", Data: make([]SceneView, 0, len(recs))}
	for _, rec := range recs {
		list.Data = append(list.Data, NewSceneView(rec.Scene, rec.CreatedAt))
	}
	return writeJSON(c, http.StatusOK, list)
}

func (s *Server) handleGetScene(c *echo.Context) error {
	id := c.Param("id")
	rec, ok := s.scenes.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("scene %q not found", id))
	}
	return writeJSON(c, http.StatusOK, NewSceneView(rec.Scene, rec.CreatedAt))
}

func (s *Server) handleDeleteScene(c *echo.Context) error {
	id := c.Param("id")
	released, ok := s.scenes.Delete(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("scene %q not found", id))
	}
	s.log.Debug("scene deleted", "id", id, "released", released)
	return writeJSON(c, http.StatusOK, DeleteSceneResp{
		ID:       id,
		Object:   "scene.deleted",
		Deleted:  true,
		Released: released,
	})
}

func (s *Server) handleGetBlob(c *echo.Context) error {
	if s.blobs == nil {
		return writeNotFound(c, "blob store not configured")
	}
	tok := handle.Token(c.Param("token"))
	data, err := s.blobs.Open(tok)
	if err != nil {
		if errors.Is(err, handle.ErrUnknownToken) {
			return writeNotFound(c, fmt.Sprintf("blob %q not found", tok))
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

func (s *Server) handleInspect(c *echo.Context) error {
	if s.loader == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "loader not configured", "")
	}
	f, err := readUpload(c, s.maxUpload)
	if err != nil {
		return s.writeUploadError(c, err)
	}
	rep, err := s.loader.Inspect(f)
	if err != nil {
		return writeLoadError(c, err)
	}
	return writeJSON(c, http.StatusOK, NewInspectView(rep))
}

func (s *Server) writeUploadError(c *echo.Context, err error) error {
	if errors.Is(err, errUploadTooLarge) {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error",
			fmt.Sprintf("upload exceeds %d bytes", s.maxUpload), "")
	}
	return writeBadRequest(c, err.Error())
}
