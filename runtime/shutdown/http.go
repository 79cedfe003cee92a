package shutdown

import (
	"context"
	"net"
	"net/http"
)

// HTTPServer adapts *http.Server to Server. The listener is opened in
// Listen so that bind errors surface before Run.
type HTTPServer struct {
	name string
	srv  *http.Server
	lis  net.Listener
}

func NewHTTPServer(name string, srv *http.Server) *HTTPServer {
	if name == "" {
		name = "http"
	}
	return &HTTPServer{name: name, srv: srv}
}

func (h *HTTPServer) Name() string { return h.name }

// Listen binds srv.Addr. Calling it is optional; Serve binds lazily.
func (h *HTTPServer) Listen() error {
	if h.lis != nil {
		return nil
	}
	lis, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.lis = lis
	return nil
}

// Addr is the bound address, or srv.Addr before Listen.
func (h *HTTPServer) Addr() string {
	if h.lis != nil {
		return h.lis.Addr().String()
	}
	return h.srv.Addr
}

// Serve blocks until ctx is done or the server fails. Request contexts
// derive from ctx.
func (h *HTTPServer) Serve(ctx context.Context) error {
	if err := h.Listen(); err != nil {
		return err
	}
	h.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() { errCh <- h.srv.Serve(h.lis) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (h *HTTPServer) GracefulStopWithTimeout(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

func (h *HTTPServer) ForceStop() { _ = h.srv.Close() }
