package connectivity

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bassista/go_fest/internal/logger"
)

// HTTPDoer is the subset of *http.Client used by the reachability probe.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober periodically samples link state and internet reachability and publishes the result.
type Prober struct {
	probeURL    string
	interval    time.Duration
	doer        HTTPDoer
	linkChecker func() (bool, error)
}

// NewProber probes probeURL with HEAD requests every interval. An empty probeURL leaves
// reachability unknown, which the monitor treats as online when a link is up.
func NewProber(probeURL string, interval time.Duration, doer HTTPDoer) *Prober {
	if doer == nil {
		doer = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{probeURL: probeURL, interval: interval, doer: doer, linkChecker: hasActiveInterface}
}

// WithLinkChecker replaces the network-interface check.
func (p *Prober) WithLinkChecker(fn func() (bool, error)) *Prober {
	p.linkChecker = fn
	return p
}

// Sample takes one measurement.
func (p *Prober) Sample(ctx context.Context) Signal {
	log := logger.WithComponent("connectivity")

	var sig Signal
	up, err := p.linkChecker()
	if err != nil {
		log.Warnf("cannot read network interfaces: %v", err)
	} else {
		sig.IsConnected = &up
	}

	if p.probeURL == "" || (sig.IsConnected != nil && !*sig.IsConnected) {
		return sig
	}

	reachable := p.head(ctx)
	sig.IsInternetReachable = &reachable
	return sig
}

func (p *Prober) head(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.probeURL, nil)
	if err != nil {
		logger.WithComponent("connectivity").Warnf("invalid probe url %q: %v", p.probeURL, err)
		return false
	}
	resp, err := p.doer.Do(req)
	if err != nil {
		logger.WithComponent("connectivity").Debugf("probe failed: %v", err)
		return false
	}
	resp.Body.Close()
	// any HTTP answer proves the route works
	return true
}

// Start samples immediately and then on every tick, publishing to m until ctx is cancelled.
// The returned channel is closed when the loop has exited.
func (p *Prober) Start(ctx context.Context, m *Monitor) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		publish := func() {
			sig := p.Sample(ctx)
			// a cancelled probe says nothing about the network
			if ctx.Err() == nil {
				m.Publish(sig)
			}
		}

		publish()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("connectivity").Debug("prober stopped")
				return
			case <-ticker.C:
				publish()
			}
		}
	}()
	return done
}

func hasActiveInterface() (bool, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true, nil
		}
	}
	return false, nil
}
