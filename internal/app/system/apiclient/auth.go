package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/coophub/internal/domain/models"
	"golang.org/x/oauth2"
)

// AuthResult is what login and registration hand back.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// Login exchanges an email and password for a token using the OAuth2
// password grant the API exposes at /api/auth/login (form fields
// username, password). The identity rides along in the token response's
// "user" member.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.endpoint("/api/auth/login"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := cfg.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, newError(re.Response.StatusCode, re.Body)
		}
		return nil, fmt.Errorf("POST /api/auth/login: %w", err)
	}

	res := &AuthResult{AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	raw, err := json.Marshal(tok.Extra("user"))
	if err != nil {
		return nil, fmt.Errorf("login: encode user: %w", err)
	}
	if err := json.Unmarshal(raw, &res.User); err != nil {
		return nil, fmt.Errorf("login: decode user: %w", err)
	}
	return res, nil
}

// Register creates an account and returns its token and identity.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*AuthResult, error) {
	var res AuthResult
	if err := c.Do(ctx, http.MethodPost, "/api/auth/register", reg, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("POST /api/auth/register: response missing access_token")
	}
	return &res, nil
}

// Me returns the identity behind the attached bearer token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
