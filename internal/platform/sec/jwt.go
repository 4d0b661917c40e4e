// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides token verification and the role to capability mapping.
//
// # Architecture
//
// Term management endpoints check the capability a taxonomy declares for an
// action against the role and explicit grants carried in an RS256 token. The
// API verifies tokens with the public key only; cmd/token mints them for
// operators with the private key.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the payload of an access token.
//
// The role and any extra capability grants travel inside the token, so
// [middleware.Authenticate] rebuilds the caller's permissions without a
// datastore lookup.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID       string   `json:"uid"`
	Username     string   `json:"unm"`
	Role         string   `json:"rol"`
	Capabilities []string `json:"cap,omitempty"`
}

// Grant describes the holder of a token to be issued.
type Grant struct {
	UserID   string
	Username string
	Role     UserRole

	// Capabilities are granted on top of the ones implied by Role, e.g. a
	// custom "manage_genres" declared by one taxonomy.
	Capabilities []string
}

// ErrUnknownRole rejects grants for roles outside the hierarchy.
var ErrUnknownRole = errors.New("sec: unknown role")

// TokenService signs and verifies RS256 access tokens. A service built
// without a private key can only verify.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	parser     *jwt.Parser
}

/*
NewTokenService loads the PEM key pair.

Parameters:
  - privateKeyPath: string ("" for a verify-only service)
  - publicKeyPath: string
  - issuer: string (written to and required in the "iss" claim)

Returns:
  - *TokenService
  - error: Unreadable or malformed keys
*/
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	publicPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read public key %s: %w", publicKeyPath, err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("sec: parse public key: %w", err)
	}

	service := &TokenService{
		publicKey: publicKey,
		issuer:    issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}

	if privateKeyPath == "" {
		return service, nil
	}
	privatePEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read private key %s: %w", privateKeyPath, err)
	}
	if service.privateKey, err = jwt.ParseRSAPrivateKeyFromPEM(privatePEM); err != nil {
		return nil, fmt.Errorf("sec: parse private key: %w", err)
	}
	return service, nil
}

// Issue signs a token for grant valid for timeToLive.
func (service *TokenService) Issue(grant Grant, timeToLive time.Duration) (string, error) {
	if service.privateKey == nil {
		return "", errors.New("sec: no private key loaded")
	}
	if grant.Role.level() == 0 {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, grant.Role)
	}

	now := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
		},
		UserID:       grant.UserID,
		Username:     grant.Username,
		Role:         string(grant.Role),
		Capabilities: grant.Capabilities,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature, algorithm, issuer and expiry of a token.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := service.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}
	return claims, nil
}
