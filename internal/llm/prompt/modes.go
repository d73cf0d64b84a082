package prompt

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Mode selects the system instruction sent with every request
type Mode string

const (
	ModeChat       Mode = "chat"
	ModeSummarize  Mode = "summarize"
	ModeTranscribe Mode = "transcribe"
	ModeKeyMoments Mode = "key-moments"
	ModeExplain    Mode = "explain"
)

var modeInstructions = map[Mode]string{
	ModeChat: "",
	ModeSummarize: "You summarize media for a busy reader. Lead with a one sentence overview, " +
		"then give at most seven bullet points covering the main ideas in order. " +
		"Mention timestamps (mm:ss) when the source is audio or video.",
	ModeTranscribe: "You transcribe speech verbatim. Label speakers when they change " +
		"(Speaker 1, Speaker 2, ...) and prefix each paragraph with a timestamp (mm:ss). " +
		"Describe relevant non-speech sounds in brackets.",
	ModeKeyMoments: "You find the key moments in a video or audio file. Return a list of " +
		"entries formatted as `mm:ss - title: one line description`, in chronological order.",
	ModeExplain: "You are a patient teacher. Explain what is shown or discussed step by step, " +
		"define any jargon and finish with a short recap.",
}

// Modes returns every mode in a stable order
func Modes() []Mode {
	return []Mode{ModeChat, ModeSummarize, ModeTranscribe, ModeKeyMoments, ModeExplain}
}

// SystemInstruction returns the system prompt for m
func (m Mode) SystemInstruction() string {
	return modeInstructions[m]
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	_, ok := modeInstructions[m]
	return ok
}

// LookupMode resolves a possibly abbreviated or misspelled mode name
func LookupMode(name string) (Mode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	if m := Mode(name); m.Valid() {
		return m, true
	}

	targets := make([]string, 0, len(modeInstructions))
	for _, m := range Modes() {
		targets = append(targets, string(m))
	}
	ranks := fuzzy.RankFindNormalizedFold(name, targets)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return Mode(ranks[0].Target), true
}
