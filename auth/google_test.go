package auth

import (
	"strings"
	"sync"
	"testing"
)

func newGoogleClient() *GoogleClient {
	return &GoogleClient{
		stateMutex: &sync.Mutex{},
		state:      make(map[string]struct{}),
	}
}

func TestLoginURL_RegistersState(t *testing.T) {
	c := newGoogleClient()

	url := c.LoginURL()
	if !strings.Contains(url, "state=") {
		t.Fatalf("no state in login url: %s", url)
	}
	if len(c.state) != 1 {
		t.Fatalf("expected 1 pending state, got %d", len(c.state))
	}
}

func TestExchangeToken_UnknownState(t *testing.T) {
	c := newGoogleClient()

	_, err := c.ExchangeToken("never issued", "code")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestExchangeToken_StateIsSingleUse(t *testing.T) {
	c := newGoogleClient()

	c.LoginURL()
	var state string
	for s := range c.state {
		state = s
	}

	// The first use consumes the state even though the code exchange
	// itself fails without a real endpoint.
	c.ExchangeToken(state, "code")
	if len(c.state) != 0 {
		t.Fatalf("state should have been consumed, %d left", len(c.state))
	}
}
