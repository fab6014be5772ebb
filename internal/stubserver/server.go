// Package stubserver is a development stand-in for the processing service.
// It validates the multipart contract and echoes the uploaded video back;
// it does no video processing.
package stubserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tracker-studio/internal/model"
)

const ProcessPath = "/process"

type Options struct {
	// FailStatus, when non-zero, is returned for every well-formed request.
	FailStatus int
	// Delay holds each response after the body has been read.
	Delay time.Duration
	// Reply replaces the echoed video when set.
	Reply  []byte
	Logger *slog.Logger
}

// Submission is what the stub saw in one request.
type Submission struct {
	Fields    map[string]string
	Order     []string
	Filename  string
	MediaType string
	Video     []byte
	HasVideo  bool
}

type Server struct {
	opts   Options
	logger *slog.Logger
	engine *gin.Engine

	mu    sync.Mutex
	last  *Submission
	count int
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{opts: opts, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.Default())
	r.POST(ProcessPath, s.handleProcess)
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Last returns the most recent submission.
func (s *Server) Last() (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Submission{}, false
	}
	return *s.last, true
}

// Count is the number of requests that reached the process handler.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 20 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("stub processing server listening", slog.String("addr", addr), slog.String("path", ProcessPath))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown stub server: %w", err)
	}
	return nil
}

func (s *Server) handleProcess(c *gin.Context) {
	sub, err := readSubmission(c.Request)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid multipart body: %s", err.Error())
		return
	}
	s.record(sub)

	if !sub.HasVideo {
		c.String(http.StatusBadRequest, "No video uploaded")
		return
	}
	if missing := sub.missingFields(); len(missing) > 0 {
		c.String(http.StatusBadRequest, "Missing fields: %s", strings.Join(missing, ", "))
		return
	}

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	if s.opts.FailStatus != 0 {
		c.String(s.opts.FailStatus, "Processing failed")
		return
	}

	reply := sub.Video
	if s.opts.Reply != nil {
		reply = s.opts.Reply
	}
	c.Data(http.StatusOK, "video/mp4", reply)
}

func (s *Server) record(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.last = &sub
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(started)),
		)
	}
}

// readSubmission walks the parts in order so tests can assert wire order.
func readSubmission(r *http.Request) (Submission, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return Submission{}, err
	}
	sub := Submission{Fields: map[string]string{}}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Submission{}, err
		}
		name := part.FormName()
		data, err := io.ReadAll(part)
		if err != nil {
			return Submission{}, err
		}
		sub.Order = append(sub.Order, name)
		if name == model.FieldVideo && part.FileName() != "" {
			sub.HasVideo = true
			sub.Filename = part.FileName()
			sub.MediaType = part.Header.Get("Content-Type")
			sub.Video = data
			continue
		}
		sub.Fields[name] = string(data)
	}
	return sub, nil
}

func (s Submission) missingFields() []string {
	var missing []string
	for _, name := range model.RequiredFields()[1:] {
		if _, ok := s.Fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
