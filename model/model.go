package model

import (
	"fmt"
	"time"
)

type SurveyStatus string

const (
	StatusDraft  SurveyStatus = "draft"
	StatusActive SurveyStatus = "active"
	StatusClosed SurveyStatus = "closed"
)

type QuestionType string

const (
	TypeNPS      QuestionType = "nps"
	TypeLikert   QuestionType = "likert"
	TypeText     QuestionType = "text"
	TypeTextarea QuestionType = "textarea"
	TypeRadio    QuestionType = "radio"
	TypeSelect   QuestionType = "select"
)

type Survey struct {
	ID           int          `json:"id,omitempty"`
	Version      int          `json:"version,omitempty"`
	Slug         string       `json:"slug"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       SurveyStatus `json:"status"`
	RequireToken bool         `json:"requireToken"`
	WebhookURL   string       `json:"webhookUrl,omitempty"`
	BrandColor   string       `json:"brandColor,omitempty"`
	Questions    []Question   `json:"questions"`
	Rules        []Rule       `json:"rules,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Label    string       `json:"label"`
	Required bool         `json:"required"`
	Visible  bool         `json:"visible"`
	Options  []string     `json:"options,omitempty"`
}

func (q Question) IsChoice() bool {
	return q.Type == TypeRadio || q.Type == TypeSelect
}

type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "notEquals"
	OpContains  Operator = "contains"
	OpGreater   Operator = "greater"
	OpLess      Operator = "less"
)

type ActionKind string

const (
	ActionShow         ActionKind = "show"
	ActionHide         ActionKind = "hide"
	ActionMakeRequired ActionKind = "makeRequired"
)

type Condition struct {
	QuestionID string   `json:"questionId"`
	Operator   Operator `json:"operator"`
	Value      any      `json:"value"`
}

type Action struct {
	Kind   ActionKind `json:"actionKind"`
	Target string     `json:"targetQuestionId"`
}

type Rule struct {
	When Condition `json:"when"`
	Then []Action  `json:"then"`
}

// Answers maps question IDs to raw answer values. Choice questions may
// hold a single string or a list, numeric questions a number or its
// string form, exactly as decoded from JSON.
type Answers map[string]any

type Draft struct {
	Answers      Answers   `json:"answers"`
	CurrentIndex int       `json:"currentIndex"`
	Language     string    `json:"language"`
	Timestamp    time.Time `json:"timestamp"`
}

type Token struct {
	Value  string     `json:"token"`
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"usedAt,omitempty"`
}

// Identity carries what a respondent presents when opening a survey.
// DeviceID is an opaque stable identifier derived client-side.
type Identity struct {
	Token    string `json:"token,omitempty"`
	DeviceID string `json:"deviceId"`
}

// Scope is the draft/dedup key: the token when the survey requires one,
// the device identifier otherwise.
func (s *Survey) Scope(id Identity) string {
	if s.RequireToken {
		return id.Token
	}
	return id.DeviceID
}

func (s *Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type Response struct {
	ID              string    `json:"id"`
	SurveyID        int       `json:"surveyId"`
	DeviceID        string    `json:"deviceId"`
	Token           string    `json:"token,omitempty"`
	Answers         Answers   `json:"answers"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	DurationMs      int64     `json:"durationMs"`
	Language        string    `json:"language"`
	ClientSignature string    `json:"clientSignature,omitempty"`
}

func (s *Survey) Validate() error {
	switch s.Status {
	case StatusDraft, StatusActive, StatusClosed:
	default:
		return fmt.Errorf("invalid status %q", s.Status)
	}
	if s.Slug == "" {
		return fmt.Errorf("missing slug")
	}

	seen := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		if q.ID == "" {
			return fmt.Errorf("question without id")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true

		switch q.Type {
		case TypeNPS, TypeLikert, TypeText, TypeTextarea, TypeRadio, TypeSelect:
		default:
			return fmt.Errorf("question %q: invalid type %q", q.ID, q.Type)
		}
		if q.IsChoice() && len(q.Options) == 0 {
			return fmt.Errorf("question %q: choice type needs at least one option", q.ID)
		}
	}

	for i, r := range s.Rules {
		if !seen[r.When.QuestionID] {
			return fmt.Errorf("rule %d: unknown question %q", i, r.When.QuestionID)
		}
		switch r.When.Operator {
		case OpEquals, OpNotEquals, OpContains, OpGreater, OpLess:
		default:
			return fmt.Errorf("rule %d: invalid operator %q", i, r.When.Operator)
		}
		for _, a := range r.Then {
			if !seen[a.Target] {
				return fmt.Errorf("rule %d: unknown target %q", i, a.Target)
			}
			switch a.Kind {
			case ActionShow, ActionHide, ActionMakeRequired:
			default:
				return fmt.Errorf("rule %d: invalid action %q", i, a.Kind)
			}
		}
	}
	return nil
}
