package audio

import (
	"math"
	"sync"
)

const (
	minDecibels = -100.0
	maxDecibels = -30.0
	smoothing   = 0.8
)

// PCMAnalyser computes byte frequency magnitudes over the most recent
// fftSize samples it was given, scaled the way browser analyser nodes do.
type PCMAnalyser struct {
	mu           sync.Mutex
	fftSize      int
	ring         []float64
	pos          int
	prev         []float64
	window       []float64
	disconnected bool
	onDisconnect func()
}

// NewPCMAnalyser creates an analyser for a power-of-two fftSize
func NewPCMAnalyser(fftSize int) *PCMAnalyser {
	if fftSize < 32 {
		fftSize = 32
	}
	window := make([]float64, fftSize)
	for i := range window {
		// Blackman window
		x := 2 * math.Pi * float64(i) / float64(fftSize)
		window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return &PCMAnalyser{
		fftSize: fftSize,
		ring:    make([]float64, fftSize),
		prev:    make([]float64, fftSize/2),
		window:  window,
	}
}

// Write feeds samples in [-1, 1]
func (a *PCMAnalyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disconnected {
		return
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.fftSize
	}
}

func (a *PCMAnalyser) BinCount() int {
	return a.fftSize / 2
}

func (a *PCMAnalyser) FrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.fftSize
	bins := n / 2
	for k := 0; k < bins && k < len(dst); k++ {
		var re, im float64
		for i := 0; i < n; i++ {
			s := a.ring[(a.pos+i)%n] * a.window[i]
			angle := 2 * math.Pi * float64(k) * float64(i) / float64(n)
			re += s * math.Cos(angle)
			im -= s * math.Sin(angle)
		}
		mag := math.Hypot(re, im) / float64(n)
		mag = smoothing*a.prev[k] + (1-smoothing)*mag
		a.prev[k] = mag

		db := minDecibels
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
		dst[k] = byte(math.Max(0, math.Min(255, scaled)))
	}
}

// Disconnect stops the analyser receiving input
func (a *PCMAnalyser) Disconnect() error {
	a.mu.Lock()
	if a.disconnected {
		a.mu.Unlock()
		return ErrDisconnected
	}
	a.disconnected = true
	fn := a.onDisconnect
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// Disconnected reports whether Disconnect was called
func (a *PCMAnalyser) Disconnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disconnected
}

func (a *PCMAnalyser) reset(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.ring {
		a.ring[i] = 0
	}
	a.pos = 0
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.fftSize
	}
}
