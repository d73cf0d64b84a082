package audio

import (
	"context"
	"time"
)

// Sampler produces the frame to draw next
type Sampler interface {
	Sample() Frame
}

// Loop redraws the spectrum once per tick until its context ends
type Loop struct {
	Interval time.Duration
	Source   Sampler
}

// NewLoop creates a loop running at fps frames per second
func NewLoop(source Sampler, fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{Interval: time.Second / time.Duration(fps), Source: source}
}

// Run calls draw with a fresh frame every tick. It returns when ctx is done
// and never calls draw after returning.
func (l *Loop) Run(ctx context.Context, draw func(Frame)) error {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			draw(l.Source.Sample())
		}
	}
}
