// Package statsview serves runtime charts over HTTP while the player runs.
// The server is only compiled in with the statsview build tag:
//
//	go build -tags statsview ./cmd
//
// Without the tag, Start returns ErrUnavailable.
package statsview

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// DefaultAddress is where the -statsview flag serves.
const DefaultAddress = "localhost:12650"

const chartsPath = "/debug/statsview"

var ErrUnavailable = errors.New("built without the statsview tag")

// Server is a running stats server.
type Server struct {
	addr string
	once sync.Once
	stop func()
}

// URL is the page with the charts.
func (s *Server) URL() string {
	return "http://" + s.addr + chartsPath
}

// Stop shuts the server down. Calling it more than once is harmless.
func (s *Server) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

func checkAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("couldn't use stats address %q: %w", addr, err)
	}
	if port == "" {
		return fmt.Errorf("couldn't use stats address %q: no port", addr)
	}
	return nil
}
