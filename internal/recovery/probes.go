package recovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
)

// Probe runs a category-specific diagnostic between retry attempts and
// returns a short human-readable finding.
type Probe func(ctx context.Context) string

// probeTimeout bounds every probe so a hung diagnostic cannot stall the
// retry loop.
const probeTimeout = 5 * time.Second

// connectivityProbeAddr is a well-known anycast endpoint used purely as
// a reachability check.
const connectivityProbeAddr = "1.1.1.1:443"

// probeFor maps an error category to its diagnostic. Categories without
// a useful diagnostic return nil.
func probeFor(category kerror.Category) (name string, p Probe) {
	switch category {
	case kerror.CategoryNetwork, kerror.CategoryProvider:
		return "connectivity", connectivityProbe
	case kerror.CategoryFile, kerror.CategoryTool:
		return "fs-permission", fsPermissionProbe
	case kerror.CategorySystem:
		return "memory-pressure", memoryProbe
	default:
		return "", nil
	}
}

// runProbe executes a probe under its own deadline. It never blocks past
// probeTimeout even if the probe body ignores its context.
func runProbe(ctx context.Context, p Probe) string {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	done := make(chan string, 1)
	go func() { done <- p(pctx) }()

	select {
	case diag := <-done:
		return diag
	case <-pctx.Done():
		return "diagnostic probe timed out"
	}
}

func connectivityProbe(ctx context.Context) string {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", connectivityProbeAddr)
	if err != nil {
		return fmt.Sprintf("network unreachable: %v", err)
	}
	conn.Close()
	return "network reachable"
}

func fsPermissionProbe(ctx context.Context) string {
	f, err := os.CreateTemp("", "kuuzuki-probe-*")
	if err != nil {
		return fmt.Sprintf("temp directory not writable: %v", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return "temp directory writable"
}

func memoryProbe(ctx context.Context) string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("heap in use %d MiB, %d goroutines", m.HeapInuse/(1<<20), runtime.NumGoroutine())
}
