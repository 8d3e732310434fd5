package service

import (
	"crypto/subtle"

	"github.com/iyhunko/product-listings/internal/model"
)

// Authorizer decides whether a caller holding secret may mutate the product.
type Authorizer interface {
	Authorize(product *model.Product, secret string) bool
}

// PlaintextAuthorizer compares the secret with the stored password.
type PlaintextAuthorizer struct{}

func (PlaintextAuthorizer) Authorize(product *model.Product, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(product.Password), []byte(secret)) == 1
}
