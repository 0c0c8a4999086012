package pipeline

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// startProgress draws a spinner with a processed/total counter on w until the
// returned stop function is called. stop blocks until the final line is written.
func startProgress(w io.Writer, processed *int64, total int64) (stop func()) {
	var wg sync.WaitGroup
	done := make(chan struct{})
	startTime := time.Now()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := spinner.New()
		s.Spinner = spinner.Dot
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				n := atomic.LoadInt64(processed)
				fmt.Fprintf(w, "\r%s Pixelation complete. %d/%d images processed.\n", "✓", n, total)
				return
			case <-ticker.C:
				s, _ = s.Update(s.Tick())
				n := atomic.LoadInt64(processed)
				elapsed := time.Since(startTime).Seconds()
				var ips float64
				if elapsed > 0 {
					ips = float64(n) / elapsed
				}
				fmt.Fprintf(w, "\r%s Pixelating images %d/%d... (%.2f images/s)", s.View(), n, total, ips)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
