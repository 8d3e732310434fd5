package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// ProductIDLength is the length of a generated product id.
	ProductIDLength = 30
	// ProductIDAlphabet holds the symbols a product id is drawn from.
	ProductIDAlphabet = "1234567890ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// IDGenerator produces candidate product ids.
type IDGenerator func() (string, error)

// RandomProductID draws ProductIDLength symbols uniformly, with replacement, from ProductIDAlphabet.
func RandomProductID() (string, error) {
	alphabetSize := big.NewInt(int64(len(ProductIDAlphabet)))
	id := make([]byte, ProductIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		id[i] = ProductIDAlphabet[n.Int64()]
	}
	return string(id), nil
}
