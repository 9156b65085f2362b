package interview

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Level is the seniority the candidate interviews for.
type Level string

const (
	Junior Level = "Junior"
	Mid    Level = "Mid"
	Senior Level = "Senior"
)

// ParseLevel maps free-form labels onto a Level. "Mid-Level" is accepted for Mid.
func ParseLevel(raw string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "junior":
		return Junior, true
	case "mid", "mid-level", "midlevel", "middle":
		return Mid, true
	case "senior":
		return Senior, true
	default:
		return "", false
	}
}

const (
	DefaultLevel    = Junior
	DefaultPosition = "Data Scientist"
	DefaultCompany  = "Amazon"
)

// Profile holds the candidate attributes frozen when the interview starts.
type Profile struct {
	Name       string `json:"name"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
	Level      Level  `json:"level" validate:"required,oneof=Junior Mid Senior"`
	Position   string `json:"position" validate:"required"`
	Company    string `json:"company" validate:"required"`
}

// DefaultProfile returns the pre-filled form values.
func DefaultProfile() Profile {
	return Profile{
		Level:    DefaultLevel,
		Position: DefaultPosition,
		Company:  DefaultCompany,
	}
}

// Normalize trims every field and fills level, position and company with
// their defaults when left blank. Name, experience and skills may stay empty.
func (p Profile) Normalize() Profile {
	out := Profile{
		Name:       strings.TrimSpace(p.Name),
		Experience: strings.TrimSpace(p.Experience),
		Skills:     strings.TrimSpace(p.Skills),
		Level:      Level(strings.TrimSpace(string(p.Level))),
		Position:   strings.TrimSpace(p.Position),
		Company:    strings.TrimSpace(p.Company),
	}
	if out.Level == "" {
		out.Level = DefaultLevel
	} else if lvl, ok := ParseLevel(string(out.Level)); ok {
		out.Level = lvl
	}
	if out.Position == "" {
		out.Position = DefaultPosition
	}
	if out.Company == "" {
		out.Company = DefaultCompany
	}
	return out
}

// Validate validates the Profile using the validator.
func (p *Profile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

const systemPromptTemplate = "You are an HR executive that interviews an interviewee called %s with experience %s and skills %s. You should interview him for the position %s %s at the %s."

// SystemPrompt renders the interviewer framing message for this profile.
func (p Profile) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, p.Name, p.Experience, p.Skills, p.Level, p.Position, p.Company)
}
