package commerce

import (
	"context"
	"net/http"
)

// Tokens is the sign-in answer.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SignUpRequest is the sign-up payload.
type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Zipcode   string `json:"zipcode"`
	Avatar    string `json:"avatar"`
	Gender    string `json:"gender"`
}

// SignIn exchanges credentials for an access and refresh token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	var tokens Tokens
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/sign_in",
		body:     map[string]string{"email": email, "password": password},
		fallback: "sign in failed",
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/sign_up",
		body:     req,
		fallback: "sign up failed",
	}, nil)
}

// SignOut invalidates the token on the server.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/sign_out",
		token:    token,
		fallback: "sign out failed",
	}, nil)
}
