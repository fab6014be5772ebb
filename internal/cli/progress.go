package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// uploadProgress is fed from the upload goroutine and read by whoever
// draws it.
type uploadProgress struct {
	sent    atomic.Int64
	total   atomic.Int64
	started atomic.Int64
}

func (p *uploadProgress) Observe(sent, total int64) {
	p.started.CompareAndSwap(0, time.Now().UnixNano())
	p.sent.Store(sent)
	p.total.Store(total)
}

func (p *uploadProgress) Reset() {
	p.sent.Store(0)
	p.total.Store(0)
	p.started.Store(0)
}

func (p *uploadProgress) Summary() string {
	sent := p.sent.Load()
	total := p.total.Load()
	if sent == 0 {
		return "connecting"
	}

	if total > 0 && sent >= total {
		return "uploaded " + formatBytesIEC(total) + "  waiting for render"
	}
	parts := []string{"uploading"}
	if total > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", float64(sent)*100/float64(total)))
		parts = append(parts, formatBytesIEC(sent)+" of "+formatBytesIEC(total))
	} else {
		parts = append(parts, formatBytesIEC(sent))
	}
	if start := p.started.Load(); start > 0 {
		if secs := time.Since(time.Unix(0, start)).Seconds(); secs >= 1 {
			parts = append(parts, formatBytesIEC(int64(float64(sent)/secs))+"/s")
		}
	}
	return strings.Join(parts, "  ")
}

// liveProgress redraws one status line on a terminal until stopped.
type liveProgress struct {
	enabled bool
	out     io.Writer
	label   string
	source  *uploadProgress

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func newLiveProgress(enabled bool, out io.Writer, label string, source *uploadProgress) *liveProgress {
	return &liveProgress{
		enabled: enabled,
		out:     out,
		label:   label,
		source:  source,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *liveProgress) Start() {
	if !p.enabled {
		return
	}
	go func() {
		defer close(p.done)
		t := time.NewTicker(700 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-t.C:
				fmt.Fprintf(p.out, "\r\033[2K%s", p.render())
			}
		}
	}()
}

func (p *liveProgress) Stop(final string) {
	if !p.enabled {
		return
	}
	p.once.Do(func() {
		close(p.stop)
		<-p.done
		if final == "" {
			fmt.Fprint(p.out, "\r\033[2K")
			return
		}
		fmt.Fprintf(p.out, "\r\033[2K%s\n", final)
	})
}

func (p *liveProgress) render() string {
	label := p.label
	if len([]rune(label)) > 40 {
		label = truncateRunes(label, 40)
	}
	return label + "  " + p.source.Summary()
}
