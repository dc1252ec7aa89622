package backend

import (
	"context"
	"net/http"
	"net/url"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
}

type CustomerAddress struct {
	ID           string `json:"_id,omitempty"`
	Label        string `json:"label,omitempty"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"isDefault"`
}

type Customer struct {
	ID        string            `json:"_id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Addresses []CustomerAddress `json:"addresses,omitempty"`
}

type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// AuthSession is returned by sign-in and sign-up.
type AuthSession struct {
	Token       string   `json:"token"`
	AccessToken string   `json:"accessToken,omitempty"`
	Customer    Customer `json:"customer"`
}

// BearerToken returns whichever token field the API filled in.
func (s AuthSession) BearerToken() string {
	if s.Token != "" {
		return s.Token
	}
	return s.AccessToken
}

func (c *Client) SignIn(ctx context.Context, creds Credentials) (*AuthSession, error) {
	return c.authenticate(ctx, "/api/customers/signin", creds)
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthSession, error) {
	return c.authenticate(ctx, "/api/customers/signup", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthSession, error) {
	var session AuthSession
	err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &session)
	if err != nil {
		return nil, err
	}
	if session.BearerToken() == "" {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Detail: "store API returned no token"}
	}
	return &session, nil
}

func (c *Client) GetProfile(ctx context.Context, token string) (*Customer, error) {
	return c.customerCall(ctx, request{method: http.MethodGet, path: "/api/customers/me", token: token})
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*Customer, error) {
	return c.customerCall(ctx, request{method: http.MethodPut, path: "/api/customers/me", token: token, body: update})
}

func (c *Client) AddAddress(ctx context.Context, token string, addr CustomerAddress) (*Customer, error) {
	return c.customerCall(ctx, request{method: http.MethodPost, path: "/api/customers/me/addresses", token: token, body: addr})
}

func (c *Client) UpdateAddress(ctx context.Context, token, addressID string, addr CustomerAddress) (*Customer, error) {
	return c.customerCall(ctx, request{
		method: http.MethodPut,
		path:   "/api/customers/me/addresses/" + url.PathEscape(addressID),
		token:  token,
		body:   addr,
	})
}

func (c *Client) DeleteAddress(ctx context.Context, token, addressID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/customers/me/addresses/" + url.PathEscape(addressID),
		token:  token,
	}, nil)
}

func (c *Client) customerCall(ctx context.Context, r request) (*Customer, error) {
	if r.token == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "sign in required"}
	}
	var customer Customer
	if err := c.do(ctx, r, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}
