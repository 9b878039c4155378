package models

import "github.com/golang-jwt/jwt/v5"

// CustomerClaims is the bearer token payload. The subject is the customer ID
// the caller may move funds from.
type CustomerClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// CustomerID returns the token subject.
func (c *CustomerClaims) CustomerID() string {
	return c.Subject
}
