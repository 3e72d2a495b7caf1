package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/umbrosa/umbrosa/internal/directory"
	"github.com/umbrosa/umbrosa/internal/vapi"
)

type fakeVoiceAPI struct {
	lastRequest vapi.CreateCallRequest
	response    vapi.Call
	err         error
}

func (f *fakeVoiceAPI) CreateCall(_ context.Context, req vapi.CreateCallRequest) (vapi.Call, error) {
	f.lastRequest = req
	if f.err != nil {
		return vapi.Call{}, f.err
	}
	return f.response, nil
}

func testDefinition() directory.CallDefinition {
	return directory.CallDefinition{
		ID:                "A-0900",
		Name:              "test call",
		AssistantID:       "A",
		PhoneNumberID:     "P",
		CustomerNumber:    "+61467807718",
		InterviewSeriesID: "series-1",
		PromptName:        "marcus-daily-checkin",
		Batch:             directory.BatchMorning,
	}
}

func TestPlaceCallAttachesContext(t *testing.T) {
	api := &fakeVoiceAPI{response: vapi.Call{ID: "call-1", Status: "queued"}}
	d := New(api)

	outcome, err := d.PlaceCall(context.Background(), testDefinition(), "prior notes")
	if err != nil {
		t.Fatalf("PlaceCall error = %v", err)
	}

	req := api.lastRequest
	if req.AssistantID != "A" || req.PhoneNumberID != "P" {
		t.Fatalf("request ids = %s/%s, want A/P", req.AssistantID, req.PhoneNumberID)
	}
	if req.Customer.Number != "+61467807718" {
		t.Fatalf("customer number = %q, want +61467807718", req.Customer.Number)
	}
	if req.AssistantOverrides == nil {
		t.Fatalf("assistant overrides missing, want previousContext variable")
	}
	if got := req.AssistantOverrides.VariableValues["previousContext"]; got != "prior notes" {
		t.Fatalf("variableValues.previousContext = %q, want %q", got, "prior notes")
	}

	if outcome.VapiCallID != "call-1" {
		t.Fatalf("outcome call id = %q, want call-1", outcome.VapiCallID)
	}
	if outcome.CustomerNumber != "+61467807718" {
		t.Fatalf("outcome customer = %q, want +61467807718", outcome.CustomerNumber)
	}
	if outcome.Status != "queued" {
		t.Fatalf("outcome status = %q, want queued", outcome.Status)
	}
}

func TestPlaceCallOmitsOverridesWithoutContext(t *testing.T) {
	api := &fakeVoiceAPI{response: vapi.Call{ID: "call-2"}}
	d := New(api)

	outcome, err := d.PlaceCall(context.Background(), testDefinition(), "")
	if err != nil {
		t.Fatalf("PlaceCall error = %v", err)
	}
	if api.lastRequest.AssistantOverrides != nil {
		t.Fatalf("assistant overrides = %+v, want nil for first call of a series", api.lastRequest.AssistantOverrides)
	}
	if outcome.Status != "created" {
		t.Fatalf("outcome status = %q, want created default", outcome.Status)
	}
}

func TestPlaceCallThreadsSeriesMetadata(t *testing.T) {
	api := &fakeVoiceAPI{response: vapi.Call{ID: "call-3"}}
	d := New(api)

	if _, err := d.PlaceCall(context.Background(), testDefinition(), ""); err != nil {
		t.Fatalf("PlaceCall error = %v", err)
	}

	meta := api.lastRequest.Metadata
	if meta["interviewSeriesId"] != "series-1" {
		t.Fatalf("metadata interviewSeriesId = %q, want series-1", meta["interviewSeriesId"])
	}
	if meta["scheduledCallId"] != "A-0900" {
		t.Fatalf("metadata scheduledCallId = %q, want A-0900", meta["scheduledCallId"])
	}
}

func TestPlaceCallWrapsAPIFailure(t *testing.T) {
	api := &fakeVoiceAPI{err: fmt.Errorf("status 500: vapi api error")}
	d := New(api)

	_, err := d.PlaceCall(context.Background(), testDefinition(), "")
	if err == nil {
		t.Fatalf("PlaceCall with failing API expected error")
	}
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("PlaceCall error = %T, want *DispatchError", err)
	}
	if dispatchErr.CustomerNumber != "+61467807718" {
		t.Fatalf("DispatchError customer = %q, want +61467807718", dispatchErr.CustomerNumber)
	}
}
