// Package directory holds the statically configured outbound call roster.
package directory

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Batch labels for the two daily cohorts.
const (
	BatchMorning   = "morning"
	BatchAfternoon = "afternoon"
)

// CallDefinition describes one recurring outbound call. Definitions are fixed
// at construction time and immutable for the life of the process.
type CallDefinition struct {
	ID                string `json:"id" validate:"required"`
	Name              string `json:"name" validate:"required"`
	AssistantID       string `json:"assistantId" validate:"required,uuid"`
	PhoneNumberID     string `json:"phoneNumberId" validate:"required"`
	CustomerNumber    string `json:"customerNumber" validate:"required,e164"`
	InterviewSeriesID string `json:"interviewSeriesId" validate:"required,uuid"`
	PromptName        string `json:"promptName" validate:"required"`
	Batch             string `json:"batch" validate:"required,oneof=morning afternoon"`
}

// Options carries the externally injected pieces of the roster: the shared
// phone line from the deployment config blob plus per-call id overrides.
type Options struct {
	PhoneNumberID         string
	MariaAssistantID      string
	ViAssistantID         string
	InterviewSeriesMarcus string
	InterviewSeriesSue    string
}

// Directory is a pure lookup over the fixed call roster.
type Directory struct {
	calls []CallDefinition
}

func New(opts Options) (*Directory, error) {
	calls := []CallDefinition{
		{
			ID:                opts.MariaAssistantID + "-0900",
			Name:              "Daily 9:00 AM call to +61467807718",
			AssistantID:       opts.MariaAssistantID,
			PhoneNumberID:     opts.PhoneNumberID,
			CustomerNumber:    "+61467807718",
			InterviewSeriesID: opts.InterviewSeriesMarcus,
			PromptName:        "marcus-daily-checkin",
			Batch:             BatchMorning,
		},
		{
			ID:                opts.ViAssistantID + "-1620",
			Name:              "Daily 4:20 PM call to +61415874467",
			AssistantID:       opts.ViAssistantID,
			PhoneNumberID:     opts.PhoneNumberID,
			CustomerNumber:    "+61415874467",
			InterviewSeriesID: opts.InterviewSeriesSue,
			PromptName:        "sue-daily-checkin",
			Batch:             BatchAfternoon,
		},
	}

	v := validator.New()
	for i, def := range calls {
		if err := v.Struct(def); err != nil {
			return nil, fmt.Errorf("call definition %d (%s): %w", i, def.Name, err)
		}
	}

	return &Directory{calls: calls}, nil
}

// ListCalls returns the definitions whose batch label matches, in declaration
// order. An empty label returns the full roster; an unknown label returns an
// empty slice, never an error.
func (d *Directory) ListCalls(batch string) []CallDefinition {
	out := make([]CallDefinition, 0, len(d.calls))
	for _, def := range d.calls {
		if batch == "" || def.Batch == batch {
			out = append(out, def)
		}
	}
	return out
}

// KnownBatch reports whether the label names one of the scheduled cohorts.
func KnownBatch(label string) bool {
	return label == BatchMorning || label == BatchAfternoon
}
