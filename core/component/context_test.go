package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// fakeInteractions records interaction REST traffic.
type fakeInteractions struct {
	mu sync.Mutex

	responses        []*discordgo.InteractionResponse
	initialEdits     []*discordgo.WebhookEdit
	followups        []*discordgo.WebhookParams
	followupEdits    map[string]*discordgo.WebhookEdit
	deletedInitial   int
	deletedFollowups []string
	fetchedMessages  []string

	respondErr error
	nextID     int
}

func newFakeInteractions() *fakeInteractions {
	return &fakeInteractions{followupEdits: make(map[string]*discordgo.WebhookEdit)}
}

func (f *fakeInteractions) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.respondErr != nil {
		return f.respondErr
	}
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeInteractions) InteractionResponse(_ *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "initial"}, nil
}

func (f *fakeInteractions) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialEdits = append(f.initialEdits, edit)
	return &discordgo.Message{ID: "initial"}, nil
}

func (f *fakeInteractions) InteractionResponseDelete(_ *discordgo.Interaction, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedInitial++
	return nil
}

func (f *fakeInteractions) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, params *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, params)
	f.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("f%d", f.nextID)}, nil
}

func (f *fakeInteractions) FollowupMessageEdit(_ *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followupEdits[messageID] = edit
	return &discordgo.Message{ID: messageID}, nil
}

func (f *fakeInteractions) FollowupMessageDelete(_ *discordgo.Interaction, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFollowups = append(f.deletedFollowups, messageID)
	return nil
}

func (f *fakeInteractions) WebhookMessage(_, _, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedMessages = append(f.fetchedMessages, messageID)
	return &discordgo.Message{ID: messageID}, nil
}

func componentInteraction(messageID, userID, customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
		Message: &discordgo.Message{ID: messageID, ChannelID: "c1"},
		User:    &discordgo.User{ID: userID},
	}
}

func TestContextInitialResponseOnce(t *testing.T) {
	ctx := context.Background()
	rest := newFakeInteractions()
	ictx := NewContext(rest, componentInteraction("m1", "u1", "x"))

	if err := ictx.UpdateMessage(ctx, &discordgo.InteractionResponseData{Content: "a"}); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if !ictx.Responded() {
		t.Fatal("context not marked responded")
	}
	if len(rest.responses) != 1 || rest.responses[0].Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("responses = %+v", rest.responses)
	}

	err := ictx.UpdateMessage(ctx, &discordgo.InteractionResponseData{Content: "b"})
	if !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("second initial: got %v, want ErrAlreadyResponded", err)
	}
}

func TestContextDeferThenRespondEditsInitial(t *testing.T) {
	ctx := context.Background()
	rest := newFakeInteractions()
	ictx := NewContext(rest, componentInteraction("m1", "u1", "x"))

	if err := ictx.Defer(ctx); err != nil {
		t.Fatalf("defer: %v", err)
	}
	if err := ictx.Defer(ctx); !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("double defer: got %v, want ErrAlreadyResponded", err)
	}
	if !ictx.Deferred() {
		t.Fatal("context not marked deferred")
	}

	if _, err := ictx.Respond(ctx, &discordgo.InteractionResponseData{Content: "late"}, false); err != nil {
		t.Fatalf("respond after defer: %v", err)
	}
	if len(rest.initialEdits) != 1 {
		t.Fatalf("initial edits = %d, want 1 (deferred content goes through edit)", len(rest.initialEdits))
	}
	if ictx.Deferred() {
		t.Fatal("deferral not cleared after its content arrived")
	}
}

func TestContextRespondRoutesToFollowup(t *testing.T) {
	ctx := context.Background()
	rest := newFakeInteractions()
	ictx := NewContext(rest, componentInteraction("m1", "u1", "x"))

	if _, err := ictx.Respond(ctx, &discordgo.InteractionResponseData{Content: "first"}, false); err != nil {
		t.Fatalf("respond: %v", err)
	}
	msg, err := ictx.Respond(ctx, &discordgo.InteractionResponseData{Content: "second"}, false)
	if err != nil {
		t.Fatalf("second respond: %v", err)
	}
	if msg == nil || msg.ID != "f1" {
		t.Fatalf("second respond message = %+v, want followup f1", msg)
	}
	if len(rest.responses) != 1 || len(rest.followups) != 1 {
		t.Fatalf("responses = %d followups = %d, want 1 and 1", len(rest.responses), len(rest.followups))
	}
}

func TestContextFollowupRequiresInitial(t *testing.T) {
	ctx := context.Background()
	ictx := NewContext(newFakeInteractions(), componentInteraction("m1", "u1", "x"))
	if _, err := ictx.CreateFollowup(ctx, &discordgo.WebhookParams{Content: "x"}); !errors.Is(err, ErrNoPreviousResponse) {
		t.Fatalf("got %v, want ErrNoPreviousResponse", err)
	}
}

func TestContextLastResponseRouting(t *testing.T) {
	ctx := context.Background()
	rest := newFakeInteractions()
	ictx := NewContext(rest, componentInteraction("m1", "u1", "x"))

	// No responses yet: everything targeting the last response fails.
	if _, err := ictx.EditLastResponse(ctx, &discordgo.WebhookEdit{}); !errors.Is(err, ErrNoPreviousResponse) {
		t.Fatalf("edit with no responses: %v", err)
	}
	if err := ictx.DeleteLastResponse(ctx); !errors.Is(err, ErrNoPreviousResponse) {
		t.Fatalf("delete with no responses: %v", err)
	}

	// Only the initial response exists: it is the last response.
	if _, err := ictx.Respond(ctx, &discordgo.InteractionResponseData{Content: "a"}, false); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := ictx.EditLastResponse(ctx, &discordgo.WebhookEdit{}); err != nil {
		t.Fatalf("edit last: %v", err)
	}
	if len(rest.initialEdits) != 1 {
		t.Fatalf("initial edits = %d, want 1", len(rest.initialEdits))
	}

	// After a followup, the followup is the last response.
	if _, err := ictx.CreateFollowup(ctx, &discordgo.WebhookParams{Content: "b"}); err != nil {
		t.Fatalf("followup: %v", err)
	}
	if _, err := ictx.EditLastResponse(ctx, &discordgo.WebhookEdit{}); err != nil {
		t.Fatalf("edit last followup: %v", err)
	}
	if _, ok := rest.followupEdits["f1"]; !ok {
		t.Fatalf("followup f1 was not edited; edits = %v", rest.followupEdits)
	}
	if _, err := ictx.FetchLastResponse(ctx); err != nil {
		t.Fatalf("fetch last: %v", err)
	}
	if len(rest.fetchedMessages) != 1 || rest.fetchedMessages[0] != "f1" {
		t.Fatalf("fetched = %v, want [f1]", rest.fetchedMessages)
	}
	if err := ictx.DeleteLastResponse(ctx); err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if len(rest.deletedFollowups) != 1 || rest.deletedFollowups[0] != "f1" {
		t.Fatalf("deleted followups = %v, want [f1]", rest.deletedFollowups)
	}
}

func TestContextSyncSlotResolution(t *testing.T) {
	ctx := context.Background()
	rest := newFakeInteractions()
	slot := newResponseSlot()
	ictx := newSyncContext(rest, componentInteraction("m1", "u1", "x"), slot)

	if err := ictx.UpdateMessage(ctx, &discordgo.InteractionResponseData{Content: "a"}); err != nil {
		t.Fatalf("initial: %v", err)
	}
	select {
	case resp := <-slot.ch:
		if resp.Type != discordgo.InteractionResponseUpdateMessage || resp.Data.Content != "a" {
			t.Fatalf("slot response = %+v", resp)
		}
	default:
		t.Fatal("initial response did not resolve the slot")
	}
	if len(rest.responses) != 0 {
		t.Fatal("sync initial response went over REST")
	}
}
