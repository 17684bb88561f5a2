package discord

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func restErr(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func TestStatusClassification(t *testing.T) {
	if !IsNotFound(restErr(http.StatusNotFound)) {
		t.Fatal("404 not classified as not found")
	}
	if !IsForbidden(restErr(http.StatusForbidden)) {
		t.Fatal("403 not classified as forbidden")
	}
	if !IsServerError(restErr(http.StatusBadGateway)) {
		t.Fatal("502 not classified as server error")
	}
	if IsNotFound(restErr(http.StatusForbidden)) || IsServerError(restErr(http.StatusNotFound)) {
		t.Fatal("statuses cross-classified")
	}
	if IsNotFound(errors.New("plain")) {
		t.Fatal("plain error classified by status")
	}
}

func TestStatusThroughWrapping(t *testing.T) {
	err := fmt.Errorf("editing page: %w", restErr(http.StatusNotFound))
	if !IsNotFound(err) {
		t.Fatal("wrapped 404 not recognized")
	}
}

func TestRetryAfter(t *testing.T) {
	wait, limited := RetryAfter(&discordgo.RateLimitError{
		RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{RetryAfter: 250 * time.Millisecond}},
	})
	if !limited || wait != 250*time.Millisecond {
		t.Fatalf("wait=%v limited=%v, want 250ms true", wait, limited)
	}
	if _, limited := RetryAfter(restErr(http.StatusTooManyRequests)); !limited {
		t.Fatal("bare 429 not recognized as rate limit")
	}
	if _, limited := RetryAfter(restErr(http.StatusNotFound)); limited {
		t.Fatal("404 recognized as rate limit")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", restErr(http.StatusInternalServerError), true},
		{"not found", restErr(http.StatusNotFound), false},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"url timeout", &url.Error{Op: "Post", URL: "https://discord.com", Err: timeoutErr{}}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestEmojiKey(t *testing.T) {
	if got := EmojiKey(&discordgo.Emoji{ID: "123", Name: "party"}); got != "123" {
		t.Fatalf("custom emoji key = %q, want id", got)
	}
	if got := EmojiKey(&discordgo.Emoji{Name: "👍"}); got != "👍" {
		t.Fatalf("unicode emoji key = %q, want name", got)
	}
	if got := EmojiKey(nil); got != "" {
		t.Fatalf("nil emoji key = %q, want empty", got)
	}
}

func TestInteractionUserID(t *testing.T) {
	guild := &discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "g1"}}}
	if got := InteractionUserID(guild); got != "g1" {
		t.Fatalf("guild interaction user = %q, want g1", got)
	}
	dm := &discordgo.Interaction{User: &discordgo.User{ID: "d1"}}
	if got := InteractionUserID(dm); got != "d1" {
		t.Fatalf("dm interaction user = %q, want d1", got)
	}
}
