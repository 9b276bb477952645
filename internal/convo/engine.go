// Package convo implements the conversational flows: adding a plant and
// configuring its watering interval. Session state is an explicit tagged
// type keyed per chat, so concurrent users never collide.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"plantbot/internal/care"
	"plantbot/internal/repo"
)

// State identifies where a conversation currently is.
type State int

const (
	StateIdle State = iota
	StateAwaitingPlantName
	StateAwaitingInterval
)

type session struct {
	state   State
	plantID int64 // bound plant while configuring an interval
}

// Button is a transport-agnostic inline button.
type Button struct {
	Label string
	Data  string
}

// Reply is what a flow step asks the transport to send back to the chat.
type Reply struct {
	Text     string
	Keyboard [][]Button
}

// Engine drives the per-chat conversation state machine.
type Engine struct {
	repository repo.Repository
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[int64]session
}

// New creates a conversation engine backed by the repository.
func New(repository repo.Repository, logger *slog.Logger) *Engine {
	return &Engine{
		repository: repository,
		logger:     logger.With("component", "convo"),
		sessions:   make(map[int64]session),
	}
}

// StateOf reports the current state and bound plant id for a chat.
func (e *Engine) StateOf(chatID int64) (State, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessions[chatID]
	return s.state, s.plantID
}

func (e *Engine) set(chatID int64, s session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[chatID] = s
}

func (e *Engine) clear(chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, chatID)
}

// StartAddPlant begins the add-plant flow: the next text message from this
// chat is taken as the plant name.
func (e *Engine) StartAddPlant(chatID int64) Reply {
	e.set(chatID, session{state: StateAwaitingPlantName})
	return Reply{Text: msgAskPlantName}
}

// StartIntervalConfig begins interval configuration for the given plant.
// Re-entry is allowed: starting a new configuration replaces any session the
// chat had in flight.
func (e *Engine) StartIntervalConfig(ctx context.Context, chatID, plantID int64) (Reply, error) {
	plant, err := e.repository.GetPlant(ctx, plantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			e.clear(chatID)
			return Reply{Text: msgPlantGone}, nil
		}
		return Reply{Text: msgStoreFailure}, err
	}

	e.set(chatID, session{state: StateAwaitingInterval, plantID: plantID})
	return Reply{
		Text:     fmt.Sprintf(msgAskInterval, plant.Name),
		Keyboard: intervalKeyboard(),
	}, nil
}

// CommitInterval commits a preset interval selection for the bound plant.
func (e *Engine) CommitInterval(ctx context.Context, chatID int64, days int) (Reply, error) {
	return e.commit(ctx, chatID, days)
}

// PromptCustomInterval asks the user to type an interval. The session stays
// in the awaiting-interval state with the plant still bound.
func (e *Engine) PromptCustomInterval(chatID int64) Reply {
	return Reply{Text: msgAskCustomInterval}
}

// HandleText routes a free-form text message through the active session.
// The second return value is false when the chat has no flow in progress.
func (e *Engine) HandleText(ctx context.Context, profile repo.UserProfile, text string) (Reply, bool, error) {
	state, _ := e.StateOf(profile.ChatID)

	switch state {
	case StateAwaitingPlantName:
		reply, err := e.addPlant(ctx, profile, text)
		return reply, true, err

	case StateAwaitingInterval:
		days, err := ParseInterval(text)
		if err != nil {
			// Validation failure: no state transition, the plant id stays
			// bound so the user can retry without re-selecting the plant.
			return Reply{Text: validationMessage(err)}, true, nil
		}
		reply, err := e.commit(ctx, profile.ChatID, days)
		return reply, true, err

	default:
		return Reply{}, false, nil
	}
}

func (e *Engine) addPlant(ctx context.Context, profile repo.UserProfile, name string) (Reply, error) {
	user, err := e.repository.UpsertUser(ctx, profile)
	if err != nil {
		return Reply{Text: msgStoreFailure}, err
	}
	plant, err := e.repository.AddPlant(ctx, user.ID, name, repo.PlantDetails{})
	if err != nil {
		return Reply{Text: msgStoreFailure}, err
	}

	e.clear(profile.ChatID)
	return Reply{
		Text: fmt.Sprintf(msgPlantAdded, plant.Name, care.Tip(plant.Name)),
	}, nil
}

// commit writes the interval for the bound plant and ends the flow. A stale
// session with no bound plant is a silent success with no store mutation.
func (e *Engine) commit(ctx context.Context, chatID int64, days int) (Reply, error) {
	state, plantID := e.StateOf(chatID)
	if state != StateAwaitingInterval || plantID == 0 {
		e.clear(chatID)
		return Reply{Text: msgScheduleSavedShort}, nil
	}

	if err := e.repository.SetWateringSchedule(ctx, plantID, days); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Plant deleted mid-flow: forgiving, same as a stale session.
			e.clear(chatID)
			return Reply{Text: msgScheduleSavedShort}, nil
		}
		e.clear(chatID)
		return Reply{Text: msgStoreFailure}, err
	}

	name := "Your plant"
	if plant, err := e.repository.GetPlant(ctx, plantID); err == nil {
		name = plant.Name
	}

	e.clear(chatID)
	return Reply{Text: fmt.Sprintf(msgScheduleSaved, name, days)}, nil
}
