package session

import (
	"time"

	"github.com/google/uuid"
)

// ScrollMode controls how viewer scrolling follows the controller.
type ScrollMode string

const (
	ScrollModeNone        ScrollMode = "none"
	ScrollModeEveryScroll ScrollMode = "everyscroll"
	ScrollModeDivSelect   ScrollMode = "div-select"
)

// Valid reports whether m is one of the known scroll modes.
func (m ScrollMode) Valid() bool {
	switch m {
	case ScrollModeNone, ScrollModeEveryScroll, ScrollModeDivSelect:
		return true
	}
	return false
}

// QAMessage is one audience question, kept in submission order.
type QAMessage struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Question     string    `json:"question"`
	UserName     string    `json:"userName"`
	Timestamp    time.Time `json:"timestamp"`
}

// PresentationState is the canonical slide-sync state for one session. It is
// created at process start and lives for the process lifetime; the session
// router is its only writer.
type PresentationState struct {
	CurrentSlide  int            `json:"currentSlide"`
	IsActive      bool           `json:"isActive"`
	ScrollMode    ScrollMode     `json:"scrollMode"`
	TargetElement string         `json:"targetElement,omitempty"`
	FocusedImages map[string]int `json:"focusedImages"`
	QAEnabled     bool           `json:"qaEnabled"`
	QAMessages    []QAMessage    `json:"qaMessages"`

	qaLimit int
}

// NewPresentationState returns the default state. qaLimit bounds the Q&A
// history; 0 keeps it unbounded.
func NewPresentationState(qaLimit int) *PresentationState {
	return &PresentationState{
		ScrollMode:    ScrollModeNone,
		FocusedImages: make(map[string]int),
		QAMessages:    []QAMessage{},
		qaLimit:       qaLimit,
	}
}

// AppendQA stores a new Q&A message with a generated id and server timestamp,
// evicting the oldest message when the history limit is exceeded.
func (p *PresentationState) AppendQA(connectionID, question, userName string) QAMessage {
	msg := QAMessage{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		Question:     question,
		UserName:     userName,
		Timestamp:    time.Now(),
	}
	p.QAMessages = append(p.QAMessages, msg)
	if p.qaLimit > 0 && len(p.QAMessages) > p.qaLimit {
		p.QAMessages = p.QAMessages[len(p.QAMessages)-p.qaLimit:]
	}
	return msg
}

// Snapshot returns a deep copy safe to serialize after the session lock is
// released.
func (p *PresentationState) Snapshot() PresentationState {
	cp := *p
	cp.FocusedImages = make(map[string]int, len(p.FocusedImages))
	for k, v := range p.FocusedImages {
		cp.FocusedImages[k] = v
	}
	cp.QAMessages = make([]QAMessage, len(p.QAMessages))
	copy(cp.QAMessages, p.QAMessages)
	return cp
}
