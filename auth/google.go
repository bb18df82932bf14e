package auth

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"math/rand"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/bobinette/paperbank/errors"
)

type GoogleClient struct {
	config oauth2.Config

	userInfoURL string

	stateMutex sync.Locker
	state      map[string]struct{}
}

func NewGoogleClient(config string) (*GoogleClient, error) {
	c, err := ioutil.ReadFile(config)
	if err != nil {
		return nil, err
	}

	creds := struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		RedirectURL  string `json:"redirect_url"`
	}{}
	err = json.Unmarshal(c, &creds)
	if err != nil {
		return nil, err
	}

	return &GoogleClient{
		config: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},

		userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",

		stateMutex: &sync.Mutex{},
		state:      make(map[string]struct{}),
	}, nil
}

func (c *GoogleClient) LoginURL() string {
	s := randToken()
	c.stateMutex.Lock()
	c.state[s] = struct{}{}
	c.stateMutex.Unlock()

	return c.config.AuthCodeURL(s)
}

func (c *GoogleClient) ExchangeToken(state, code string) (GoogleUser, error) {
	c.stateMutex.Lock()
	_, ok := c.state[state]
	delete(c.state, state)
	c.stateMutex.Unlock()

	if !ok {
		return GoogleUser{}, errors.New("invalid state", errors.Unauthorized())
	}

	tok, err := c.config.Exchange(oauth2.NoContext, code)
	if err != nil {
		return GoogleUser{}, errors.New("could not exchange code", errors.Unauthorized(), errors.WithCause(err))
	}

	return c.userInfo(tok)
}

func (c *GoogleClient) userInfo(tok *oauth2.Token) (GoogleUser, error) {
	client := c.config.Client(oauth2.NoContext, tok)
	res, err := client.Get(c.userInfoURL)
	if err != nil {
		return GoogleUser{}, err
	}
	defer res.Body.Close()

	var user GoogleUser
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return GoogleUser{}, err
	}

	return user, nil
}

func randToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
