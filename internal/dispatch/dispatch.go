// Package dispatch places outbound calls through the voice API.
package dispatch

import (
	"context"
	"fmt"

	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/vapi"
)

// contextVariable is the override variable the assistant reads to pick up
// where the previous call in the series left off.
const contextVariable = "previousContext"

// VoiceAPI is the slice of the Vapi client the dispatcher needs.
type VoiceAPI interface {
	CreateCall(ctx context.Context, req vapi.CreateCallRequest) (vapi.Call, error)
}

// Outcome reports a placed call. It is observational only: the authoritative
// completion signal arrives later through the webhook.
type Outcome struct {
	VapiCallID     string
	CustomerNumber string
	Status         string
	ListenURL      string
}

// DispatchError reports a failed call placement.
type DispatchError struct {
	CustomerNumber string
	Err            error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch call to %s: %v", e.CustomerNumber, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

type Dispatcher struct {
	api VoiceAPI
}

func New(api VoiceAPI) *Dispatcher {
	return &Dispatcher{api: api}
}

// PlaceCall dials one call definition, attaching prior conversation context
// when present. The series id travels in call metadata so the webhook can
// link the eventual transcript back to its series.
func (d *Dispatcher) PlaceCall(ctx context.Context, def directory.CallDefinition, previousContext string) (Outcome, error) {
	req := vapi.CreateCallRequest{
		AssistantID:   def.AssistantID,
		PhoneNumberID: def.PhoneNumberID,
		Customer:      vapi.Customer{Number: def.CustomerNumber},
		Metadata: map[string]string{
			"interviewSeriesId": def.InterviewSeriesID,
			"promptName":        def.PromptName,
			"scheduledCallId":   def.ID,
		},
	}
	if previousContext != "" {
		req.AssistantOverrides = &vapi.AssistantOverrides{
			VariableValues: map[string]string{contextVariable: previousContext},
		}
	}

	call, err := d.api.CreateCall(ctx, req)
	if err != nil {
		return Outcome{}, &DispatchError{CustomerNumber: def.CustomerNumber, Err: err}
	}

	status := call.Status
	if status == "" {
		status = "created"
	}
	return Outcome{
		VapiCallID:     call.ID,
		CustomerNumber: def.CustomerNumber,
		Status:         status,
		ListenURL:      call.Monitor.ListenURL,
	}, nil
}
