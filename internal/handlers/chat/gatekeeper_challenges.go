package handlers

import (
	"sync"
	"time"
)

type ChallengeOutcome int

const (
	// OutcomeStale means no pending challenge matched, expired or already resolved.
	OutcomeStale ChallengeOutcome = iota
	// OutcomeWrongClaimant means someone else pressed the button, nothing is consumed.
	OutcomeWrongClaimant
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeTooManyAttempts
)

const challengeMaxAttempts = 2

type challengeKey struct {
	chatID int64
	userID int64
}

type Challenge struct {
	ChatID      int64
	UserID      int64
	SuccessUUID string
	MessageID   int
	Attempts    int
	IssuedAt    time.Time
}

type challengeState struct {
	Challenge
	timer *time.Timer
}

// ChallengeEngine tracks pending entry challenges. All transitions run
// under one lock, a timer expiry and a button press for the same
// challenge can never both win.
type ChallengeEngine struct {
	mu       sync.Mutex
	timeout  time.Duration
	pending  map[challengeKey]*challengeState
	onExpire func(challenge Challenge)
}

func NewChallengeEngine(timeout time.Duration, onExpire func(challenge Challenge)) *ChallengeEngine {
	return &ChallengeEngine{
		timeout:  timeout,
		pending:  make(map[challengeKey]*challengeState),
		onExpire: onExpire,
	}
}

// Issue opens a challenge for the joiner, replacing any pending one.
func (e *ChallengeEngine) Issue(chatID, userID int64, successUUID string) Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := challengeKey{chatID: chatID, userID: userID}
	if old, ok := e.pending[key]; ok {
		old.timer.Stop()
	}

	state := &challengeState{
		Challenge: Challenge{
			ChatID:      chatID,
			UserID:      userID,
			SuccessUUID: successUUID,
			IssuedAt:    time.Now(),
		},
	}
	state.timer = time.AfterFunc(e.timeout, func() { e.expire(key, state) })
	e.pending[key] = state
	return state.Challenge
}

// SetMessageID links the challenge to the keyboard message once sent.
func (e *ChallengeEngine) SetMessageID(chatID, userID int64, messageID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state, ok := e.pending[challengeKey{chatID: chatID, userID: userID}]; ok {
		state.MessageID = messageID
	}
}

// Answer resolves a button press. remaining is only meaningful for
// OutcomeIncorrect.
func (e *ChallengeEngine) Answer(chatID, challengedID, claimantID int64, nonce string) (outcome ChallengeOutcome, remaining int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := challengeKey{chatID: chatID, userID: challengedID}
	state, ok := e.pending[key]
	if !ok {
		return OutcomeStale, 0
	}
	if claimantID != challengedID {
		return OutcomeWrongClaimant, 0
	}
	if nonce == state.SuccessUUID {
		state.timer.Stop()
		delete(e.pending, key)
		return OutcomeCorrect, 0
	}

	state.Attempts++
	if state.Attempts >= challengeMaxAttempts {
		state.timer.Stop()
		delete(e.pending, key)
		return OutcomeTooManyAttempts, 0
	}
	return OutcomeIncorrect, challengeMaxAttempts - state.Attempts
}

// Get returns a copy of the pending challenge, second result false when none.
func (e *ChallengeEngine) Get(chatID, userID int64) (Challenge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.pending[challengeKey{chatID: chatID, userID: userID}]
	if !ok {
		return Challenge{}, false
	}
	return state.Challenge, true
}

// ForgetUser cancels a single pending challenge without firing expiry,
// the user left on their own.
func (e *ChallengeEngine) ForgetUser(chatID, userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := challengeKey{chatID: chatID, userID: userID}
	if state, ok := e.pending[key]; ok {
		state.timer.Stop()
		delete(e.pending, key)
	}
}

// Forget drops all pending challenges for the chat without firing expiry.
func (e *ChallengeEngine) Forget(chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, state := range e.pending {
		if key.chatID == chatID {
			state.timer.Stop()
			delete(e.pending, key)
		}
	}
}

// Shutdown cancels every pending timer.
func (e *ChallengeEngine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, state := range e.pending {
		state.timer.Stop()
		delete(e.pending, key)
	}
}

// expire only acts on the exact record its timer was armed for. A
// timer that fired while Issue was replacing the record finds a
// different pointer under the key and backs off.
func (e *ChallengeEngine) expire(key challengeKey, state *challengeState) {
	e.mu.Lock()
	if current, ok := e.pending[key]; !ok || current != state {
		e.mu.Unlock()
		return
	}
	delete(e.pending, key)
	e.mu.Unlock()

	if e.onExpire != nil {
		e.onExpire(state.Challenge)
	}
}
