package domain

import (
	"strconv"
	"strings"
)

// PollType is the fixed response type of a poll
type PollType string

const (
	PollTypeSingleChoice PollType = "single-choice"
	PollTypeYesNo        PollType = "yes/no"
	PollTypeRating       PollType = "rating"
	PollTypeImageBased   PollType = "image-based"
	PollTypeOpenEnded    PollType = "open-ended"
)

// pollTypes is the declaration order, used to break ties in stats
var pollTypes = []PollType{
	PollTypeSingleChoice,
	PollTypeYesNo,
	PollTypeRating,
	PollTypeImageBased,
	PollTypeOpenEnded,
}

// RatingScale is the number of options of a rating poll
const RatingScale = 5

// PollTypes returns every known type in declaration order
func PollTypes() []PollType {
	out := make([]PollType, len(pollTypes))
	copy(out, pollTypes)
	return out
}

// ParsePollType parses a wire value. "yes-no" is accepted as an alias of "yes/no".
func ParsePollType(raw string) (PollType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PollTypeSingleChoice):
		return PollTypeSingleChoice, nil
	case string(PollTypeYesNo), "yes-no":
		return PollTypeYesNo, nil
	case string(PollTypeRating):
		return PollTypeRating, nil
	case string(PollTypeImageBased):
		return PollTypeImageBased, nil
	case string(PollTypeOpenEnded):
		return PollTypeOpenEnded, nil
	case "":
		return "", NewValidationError("type", "type is required")
	default:
		return "", NewValidationError("type", "Invalid poll type")
	}
}

// Valid reports whether t is a known type
func (t PollType) Valid() bool {
	for _, known := range pollTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human readable name shown in stats
func (t PollType) Label() string {
	switch t {
	case PollTypeSingleChoice:
		return "Single Choice"
	case PollTypeYesNo:
		return "Yes/No"
	case PollTypeRating:
		return "Rating"
	case PollTypeImageBased:
		return "Image Based"
	case PollTypeOpenEnded:
		return "Open Ended"
	default:
		return string(t)
	}
}

// Order is the position of t in declaration order, or len(types) when unknown
func (t PollType) Order() int {
	for i, known := range pollTypes {
		if t == known {
			return i
		}
	}
	return len(pollTypes)
}

// AcceptsResponses reports whether votes are free text instead of an option index
func (t PollType) AcceptsResponses() bool {
	return t == PollTypeOpenEnded
}

// BuildOptions turns the raw options of a create request into the stored
// option list. Only single-choice and image-based polls use the raw values;
// the other types have fixed options and ignore them.
func (t PollType) BuildOptions(raw []string) ([]PollOption, error) {
	switch t {
	case PollTypeSingleChoice:
		return optionsFromRaw(raw, "Single-choice poll must have at least two options.")
	case PollTypeImageBased:
		return optionsFromRaw(raw, "Image-based poll must have at least two image URLs.")
	case PollTypeRating:
		options := make([]PollOption, 0, RatingScale)
		for i := 1; i <= RatingScale; i++ {
			options = append(options, PollOption{Text: strconv.Itoa(i)})
		}
		return options, nil
	case PollTypeYesNo:
		return []PollOption{{Text: "Yes"}, {Text: "No"}}, nil
	case PollTypeOpenEnded:
		return []PollOption{}, nil
	default:
		return nil, NewValidationError("type", "Invalid poll type")
	}
}

func optionsFromRaw(raw []string, tooFew string) ([]PollOption, error) {
	if len(raw) < 2 {
		return nil, NewValidationError("options", tooFew)
	}
	options := make([]PollOption, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, NewValidationError("options", "option "+strconv.Itoa(i)+" must not be blank")
		}
		options = append(options, PollOption{Text: text})
	}
	return options, nil
}
