// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package filing

import "context"

// TokenSource supplies the authenticated user identity and bearer token.
//
// The embedding app implements this against its credential storage (the
// device keychain on mobile). This core never stores or encrypts tokens
// itself.
type TokenSource interface {
	// UserID returns the authenticated user id, or "" when signed out.
	UserID() string

	// Token returns a bearer token for backend calls.
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource is a fixed-credential TokenSource for development and
// tests.
type StaticTokenSource struct {
	User   string
	Bearer string
}

func (s StaticTokenSource) UserID() string { return s.User }

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.Bearer == "" {
		return "", ErrNoUser
	}
	return s.Bearer, nil
}
