package models

import "github.com/go-faster/errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrUnsupportedPlatform = errors.New("unsupported e-commerce platform")
	ErrNoOffers            = errors.New("no offers found")
)
