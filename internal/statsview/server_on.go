//go:build statsview

package statsview

import (
	"errors"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/nevisdale/sn50/internal/logger"
)

// sampleInterval is how often the charts poll the runtime, in milliseconds.
const sampleInterval = 1000

// Start serves the charts on addr until Stop. A listen failure after Start
// returns is logged.
func Start(addr string) (*Server, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}

	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithInterval(sampleInterval))
	mgr := statsview.New()

	go func() {
		if err := mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logf("statsview", "%s", err)
		}
	}()

	s := &Server{addr: addr, stop: mgr.Stop}
	logger.Logf("statsview", "serving on %s", s.URL())
	return s, nil
}
