package app

import "github.com/dwikikusuma/shoping-checkout/pkg/apperr"

type AddItemCommand struct {
	OwnerID   string
	ProductID string
	Quantity  int32
}

func (c AddItemCommand) Validate() error {
	if err := apperr.ValidateID("owner_id", c.OwnerID); err != nil {
		return err
	}
	if err := apperr.ValidateID("product_id", c.ProductID); err != nil {
		return err
	}
	return validateQuantity(c.Quantity)
}

type UpdateItemCommand struct {
	OwnerID  string
	LineID   string
	Quantity int32
}

func (c UpdateItemCommand) Validate() error {
	if err := apperr.ValidateID("owner_id", c.OwnerID); err != nil {
		return err
	}
	if err := apperr.ValidateID("item_id", c.LineID); err != nil {
		return err
	}
	return validateQuantity(c.Quantity)
}

type RemoveItemCommand struct {
	OwnerID string
	LineID  string
}

func (c RemoveItemCommand) Validate() error {
	if err := apperr.ValidateID("owner_id", c.OwnerID); err != nil {
		return err
	}
	return apperr.ValidateID("item_id", c.LineID)
}

func validateQuantity(q int32) error {
	if q < 1 {
		return apperr.Invalid("quantity must be at least 1, got %d", q)
	}
	return nil
}
