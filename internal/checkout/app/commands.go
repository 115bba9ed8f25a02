package app

import (
	"strings"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
)

const maxAddressLen = 500

type PlaceOrderCommand struct {
	OwnerID         string
	ShippingAddress string
}

func (c PlaceOrderCommand) Validate() error {
	if err := apperr.ValidateID("owner_id", c.OwnerID); err != nil {
		return err
	}
	addr := strings.TrimSpace(c.ShippingAddress)
	if addr == "" {
		return apperr.Invalid("shipping address is required")
	}
	if len(addr) > maxAddressLen {
		return apperr.Invalid("shipping address exceeds %d characters", maxAddressLen)
	}
	return nil
}
