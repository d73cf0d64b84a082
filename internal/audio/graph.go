// Package audio drives the spectrum visualizer from a microphone or a
// playing media file.
package audio

import "errors"

// FFTSize is the analysis window; it yields FFTSize/2 frequency bins
const FFTSize = 256

// ErrDisconnected is returned when disconnecting a node twice
var ErrDisconnected = errors.New("audio: node already disconnected")

// ErrClosed is returned when using a closed graph
var ErrClosed = errors.New("audio: graph closed")

// Analyser exposes frequency-domain snapshots of its input
type Analyser interface {
	BinCount() int
	// FrequencyData fills dst with one magnitude byte per bin
	FrequencyData(dst []byte)
	Disconnect() error
}

// MicTap is the microphone gain stage. The visualizer only borrows it.
type MicTap interface {
	// NewAnalyser creates an analyser on the shared graph fed by the gain stage
	NewAnalyser(fftSize int) (Analyser, error)
}

// Graph is an audio processing context owned by whoever opened it
type Graph interface {
	// NewAnalyser wires source -> analyser -> output
	NewAnalyser(fftSize int) (Analyser, error)
	Suspended() bool
	Resume() error
	Close() error
}

// MediaElement is a playable file that can feed a dedicated graph
type MediaElement interface {
	OpenGraph() (Graph, error)
	// OnPlay registers fn to run whenever playback starts. The returned
	// func unregisters it.
	OnPlay(fn func()) (remove func())
}
