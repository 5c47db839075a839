package routine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/validation"
)

// Level is the difficulty of a routine.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the levels in picker order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

var levelLabels = map[Level]string{
	LevelBeginner:     "Baja",
	LevelIntermediate: "Media",
	LevelAdvanced:     "Alta",
}

// Entry defaults applied by AddExercise.
const (
	DefaultSets        = 4
	DefaultReps        = 10
	DefaultRestSeconds = 60
	DefaultDuration    = 60
)

// MinEntries is the minimum number of exercises a routine must have to be saved.
const MinEntries = 1

// Status values derived from the exercise count.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

var (
	ErrInvalidLevel  = errors.New("level must be beginner, intermediate or advanced")
	ErrEntryNotFound = errors.New("routine entry not found")
	ErrUnknownField  = errors.New("field must be sets, reps, rest_time or notes")
)

// ParseLevel accepts the stored value or its display label, ignoring case.
func ParseLevel(raw string) (Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, l := range Levels {
		if string(l) == raw || strings.ToLower(levelLabels[l]) == raw {
			return l, nil
		}
	}
	return "", ErrInvalidLevel
}

// Label returns the display label of the level, or the raw value if unknown.
func (l Level) Label() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return string(l)
}

// Field names an editable entry field.
type Field string

const (
	FieldSets     Field = "sets"
	FieldReps     Field = "reps"
	FieldRestTime Field = "rest_time"
	FieldNotes    Field = "notes"
)

// Entry is one exercise in the routine. LocalID identifies the entry itself, so the same
// exercise can appear more than once.
type Entry struct {
	LocalID     string           `json:"local_id"`
	Exercise    catalog.Exercise `json:"exercise"`
	Sets        int              `json:"sets"`
	Reps        int              `json:"reps"`
	RestSeconds int              `json:"rest_time"`
	Notes       string           `json:"notes"`
}

// Metadata is the descriptive header of a routine.
type Metadata struct {
	Name              string `json:"name"`
	Level             Level  `json:"level"`
	EstimatedDuration int    `json:"estimated_duration"`
	Description       string `json:"description"`
}

// Routine is a routine draft. Transitions return a new value and never modify the receiver.
type Routine struct {
	ID      int64
	Meta    Metadata
	entries []Entry
}

// New creates an empty draft for a new routine.
func New(meta Metadata) Routine {
	return Routine{Meta: meta}
}

// IsNew reports whether the routine has not been persisted yet.
func (r Routine) IsNew() bool { return r.ID == 0 }

// Entries returns the entries in order. Callers must not modify the returned slice.
func (r Routine) Entries() []Entry { return r.entries }

// WithMeta returns a copy with new metadata.
func (r Routine) WithMeta(meta Metadata) Routine {
	r.Meta = meta
	return r
}

// Status is "published" when the routine has exercises, else "draft".
func (r Routine) Status() string {
	if len(r.entries) > 0 {
		return StatusPublished
	}
	return StatusDraft
}

// MarshalJSON renders the draft with its entries and derived status.
func (r Routine) MarshalJSON() ([]byte, error) {
	entries := r.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(struct {
		ID         int64    `json:"id,omitempty"`
		Meta       Metadata `json:"meta"`
		LevelLabel string   `json:"level_label"`
		Status     string   `json:"status"`
		Entries    []Entry  `json:"entries"`
	}{r.ID, r.Meta, r.Meta.Level.Label(), r.Status(), entries})
}

// AddExercise appends ex with the default prescription.
// PRE: ex comes from the catalog
// POST: the new entry has a fresh LocalID
func (r Routine) AddExercise(ex catalog.Exercise) Routine {
	entries := make([]Entry, len(r.entries), len(r.entries)+1)
	copy(entries, r.entries)
	r.entries = append(entries, Entry{
		LocalID:     uuid.NewString(),
		Exercise:    ex,
		Sets:        DefaultSets,
		Reps:        DefaultReps,
		RestSeconds: DefaultRestSeconds,
	})
	return r
}

// RemoveExercise drops the entry with localID, keeping the order of the rest.
// An unknown id returns the routine unchanged.
func (r Routine) RemoveExercise(localID string) Routine {
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.LocalID != localID {
			entries = append(entries, e)
		}
	}
	if len(entries) == len(r.entries) {
		return r
	}
	r.entries = entries
	return r
}

// UpdateEntryField sets one field of the entry identified by localID.
// PRE: sets and reps parse as integers >= 1, rest_time as an integer >= 0
// POST: returns ErrEntryNotFound, ErrUnknownField or a *validation.Error; the receiver is unchanged
func (r Routine) UpdateEntryField(localID string, field Field, value string) (Routine, error) {
	idx := -1
	for i, e := range r.entries {
		if e.LocalID == localID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r, ErrEntryNotFound
	}
	entry := r.entries[idx]
	switch field {
	case FieldSets, FieldReps, FieldRestTime:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return r, validation.New(string(field), "must be a whole number")
		}
		floor := 1
		if field == FieldRestTime {
			floor = 0
		}
		if n < floor {
			return r, validation.New(string(field), fmt.Sprintf("must be at least %d", floor))
		}
		switch field {
		case FieldSets:
			entry.Sets = n
		case FieldReps:
			entry.Reps = n
		default:
			entry.RestSeconds = n
		}
	case FieldNotes:
		entry.Notes = value
	default:
		return r, ErrUnknownField
	}
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	entries[idx] = entry
	r.entries = entries
	return r, nil
}

// Pivot is the per-exercise prescription stored on the routine/exercise link.
type Pivot struct {
	Sets     catalog.Number `json:"sets"`
	Reps     catalog.Number `json:"reps"`
	RestTime catalog.Number `json:"rest_time"`
	Notes    string         `json:"notes"`
}

// RemoteExercise is an exercise as nested in a routine returned by the API.
type RemoteExercise struct {
	catalog.Exercise
	Pivot Pivot `json:"pivot"`
}

// Remote is a persisted routine as returned by GET /routines.
type Remote struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Level             string           `json:"level"`
	EstimatedDuration catalog.Number   `json:"estimated_duration"`
	Description       string           `json:"description"`
	Exercises         []RemoteExercise `json:"exercises"`
}

// Status is "published" when the routine has exercises, else "draft".
func (r Remote) Status() string {
	if len(r.Exercises) > 0 {
		return StatusPublished
	}
	return StatusDraft
}

// LevelLabel returns the display label of the stored level.
func (r Remote) LevelLabel() string {
	return Level(r.Level).Label()
}

// Rehydrate builds an edit draft from a persisted routine.
// POST: entries carry the stored pivot values, not the defaults
func Rehydrate(remote Remote) Routine {
	r := Routine{
		ID: remote.ID,
		Meta: Metadata{
			Name:              remote.Name,
			Level:             Level(remote.Level),
			EstimatedDuration: int(remote.EstimatedDuration),
			Description:       remote.Description,
		},
	}
	for _, ex := range remote.Exercises {
		r.entries = append(r.entries, Entry{
			LocalID:     uuid.NewString(),
			Exercise:    ex.Exercise,
			Sets:        int(ex.Pivot.Sets),
			Reps:        int(ex.Pivot.Reps),
			RestSeconds: int(ex.Pivot.RestTime),
			Notes:       ex.Pivot.Notes,
		})
	}
	return r
}

// ExercisePayload is one entry of a saved routine.
type ExercisePayload struct {
	ID       int64  `json:"id"`
	Sets     int    `json:"sets"`
	Reps     int    `json:"reps"`
	RestTime int    `json:"rest_time"`
	Notes    string `json:"notes,omitempty"`
}

// SaveRequest is the body of POST /routines and PUT /routines/:id.
type SaveRequest struct {
	Name              string            `json:"name"`
	Level             Level             `json:"level"`
	EstimatedDuration int               `json:"estimated_duration"`
	Description       string            `json:"description"`
	Exercises         []ExercisePayload `json:"exercises"`
}

// Save validates the draft and serializes it.
// PRE: none
// POST: returns validation.Errors for a blank name, unknown level or fewer than MinEntries entries
func (r Routine) Save() (SaveRequest, error) {
	var errs validation.Errors
	name := strings.TrimSpace(r.Meta.Name)
	if name == "" {
		errs = append(errs, validation.New("name", "name required"))
	}
	level, err := ParseLevel(string(r.Meta.Level))
	if err != nil {
		errs = append(errs, validation.New("level", err.Error()))
	}
	if len(r.entries) < MinEntries {
		errs = append(errs, validation.New("exercises", fmt.Sprintf("add at least %d exercise", MinEntries)))
	}
	if err := errs.OrNil(); err != nil {
		return SaveRequest{}, err
	}

	duration := r.Meta.EstimatedDuration
	if duration <= 0 {
		duration = DefaultDuration
	}
	desc := r.Meta.Description
	if strings.TrimSpace(desc) == "" {
		desc = fmt.Sprintf("Routine with %d exercises.", len(r.entries))
	}
	req := SaveRequest{
		Name:              name,
		Level:             level,
		EstimatedDuration: duration,
		Description:       desc,
		Exercises:         make([]ExercisePayload, 0, len(r.entries)),
	}
	for _, e := range r.entries {
		req.Exercises = append(req.Exercises, ExercisePayload{
			ID:       e.Exercise.ID,
			Sets:     e.Sets,
			Reps:     e.Reps,
			RestTime: e.RestSeconds,
			Notes:    e.Notes,
		})
	}
	return req, nil
}
