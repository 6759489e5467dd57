package pcm2mp3

import (
	"log/slog"
	"sync"
	"time"
)

// pullInterval bounds how long a single egress pull may block before the
// pump re-checks its stop signal.
const pullInterval = 100 * time.Millisecond

// pump drains encoded frames from the graph on its own goroutine and hands
// them to the frame writer one at a time, in encode order.
type pump struct {
	graph  graph
	writer FrameWriter
	logger *slog.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

func startPump(g graph, w FrameWriter, logger *slog.Logger) *pump {
	p := &pump{
		graph:  g,
		writer: w,
		logger: logger,
		quit:   make(chan struct{}),
	}
	p.wg.Go(p.run)
	return p
}

func (p *pump) run() {
	var delivered uint64
	defer func() {
		p.logger.Debug("egress pump exited", "frames", delivered)
	}()
	for {
		select {
		case <-p.quit:
			return
		default:
		}
		frame, ok := p.graph.Pull(pullInterval)
		if !ok {
			// Transient absence of output is not an error, keep
			// pulling until a frame arrives or we are stopped.
			if p.graph.AtEOS() {
				return
			}
			continue
		}
		if err := p.writer.WriteFrame(frame); err != nil {
			p.logger.Warn("frame writer failed", "error", err)
		}
		delivered++
	}
}

// stop signals the loop and blocks until it has exited. The owner calls it
// at most once.
func (p *pump) stop() {
	close(p.quit)
	p.wg.Wait()
}

// wait blocks until the loop exits on its own, which happens once the
// graph has reached end of stream and all remaining frames are delivered.
func (p *pump) wait() {
	p.wg.Wait()
}
