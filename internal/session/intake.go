package session

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// Exchanger turns an authorization code into tokens, normally through the proxy.
type Exchanger interface {
	GetTokens(ctx context.Context, code string) (*services.TokenResponse, error)
}

// View is the screen the session should present.
type View int

const (
	ViewLogin View = iota
	ViewPlayer
)

func (v View) String() string {
	switch v {
	case ViewPlayer:
		return "player"
	default:
		return "login"
	}
}

// Result is the outcome of [Intake.Start].
type Result struct {
	View View
	// Location is the landing location with the code and state parameters removed.
	Location *url.URL
	// Token is the exchange response when a code was redeemed.
	Token *services.TokenResponse
}

// Intake resolves the session at startup from the landing location and storage.
type Intake struct {
	exchanger Exchanger
	store     Store
	state     *State
	logger    *log.Logger
}

func NewIntake(exchanger Exchanger, store Store, state *State, logger *log.Logger) *Intake {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Intake{exchanger: exchanger, store: store, state: state, logger: logger}
}

// Start redeems a code found in location, otherwise falls back to a stored access token.
//
// A failed exchange leaves stored tokens untouched and returns ViewLogin with the error.
func (i *Intake) Start(ctx context.Context, location *url.URL) (Result, error) {
	result := Result{View: ViewLogin, Location: stripAuthParams(location)}

	query := url.Values{}
	if location != nil {
		query = location.Query()
	}

	if reason := query.Get("error"); reason != "" {
		return result, fmt.Errorf("%w: authorization denied: %s", shared.ErrAuthFailed, reason)
	}

	if code := query.Get("code"); code != "" {
		token, err := i.exchanger.GetTokens(ctx, code)
		if err == nil && (token == nil || token.AccessToken == "") {
			err = shared.ErrAuthFailed
		}
		if err != nil {
			i.logger.Warn("Code exchange failed", "error", err)
			return result, err
		}

		if err := SavePair(ctx, i.store, TokenPair{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}); err != nil {
			return result, err
		}
		i.state.SetToken(token.AccessToken)
		i.logger.Info("Signed in")

		result.View = ViewPlayer
		result.Token = token
		return result, nil
	}

	access, err := i.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return result, err
	}
	if access != "" {
		i.state.SetToken(access)
		result.View = ViewPlayer
	}
	return result, nil
}

func stripAuthParams(location *url.URL) *url.URL {
	if location == nil {
		return nil
	}
	clean := *location
	query := clean.Query()
	query.Del("code")
	query.Del("state")
	clean.RawQuery = query.Encode()
	return &clean
}
