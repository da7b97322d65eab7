package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Value objects captured per completed step. Each validates on construction
// and is never mutated afterwards; resubmitting a step replaces the whole
// value.

type BuyerInfo struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

func NewBuyerInfo(email, fullName, phone string) (BuyerInfo, error) {
	var b BuyerInfo

	email = strings.TrimSpace(email)
	if email == "" {
		return b, errors.New("email is blank")
	}
	if !strings.Contains(email, "@") {
		return b, fmt.Errorf("email[%s] is not valid", email)
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return b, errors.New("full name is blank")
	}

	return BuyerInfo{
		Email:    email,
		FullName: fullName,
		Phone:    strings.TrimSpace(phone),
	}, nil
}

type DeliveryAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func NewDeliveryAddress(line1, line2, city, postalCode, country string) (DeliveryAddress, error) {
	var a DeliveryAddress

	line1 = strings.TrimSpace(line1)
	if line1 == "" {
		return a, errors.New("address line1 is blank")
	}

	city = strings.TrimSpace(city)
	if city == "" {
		return a, errors.New("city is blank")
	}

	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return a, errors.New("postal code is blank")
	}

	country = strings.TrimSpace(country)
	if country == "" {
		return a, errors.New("country is blank")
	}

	return DeliveryAddress{
		Line1:      line1,
		Line2:      strings.TrimSpace(line2),
		City:       city,
		PostalCode: postalCode,
		Country:    country,
	}, nil
}

type ShippingOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Cost Money  `json:"cost"`
}

func NewShippingOption(code, name string, cost Money) (ShippingOption, error) {
	var o ShippingOption

	code = strings.TrimSpace(code)
	if code == "" {
		return o, errors.New("shipping option code is blank")
	}

	if cost.IsNegative() {
		return o, fmt.Errorf("shipping cost[%s] is negative", cost)
	}

	return ShippingOption{
		Code: code,
		Name: strings.TrimSpace(name),
		Cost: cost,
	}, nil
}

// Delivery pairs the address with the chosen shipping option; both are
// submitted together on the delivery step.
type Delivery struct {
	Address  DeliveryAddress `json:"address"`
	Shipping ShippingOption  `json:"shipping"`
}

// PaymentSelection records the buyer's choice and the provider's opaque
// authorization token. Actual payment execution happens elsewhere.
type PaymentSelection struct {
	Provider           string `json:"provider"`
	Method             string `json:"method"`
	AuthorizationToken string `json:"authorization_token"`
}

func NewPaymentSelection(provider, method, token string) (PaymentSelection, error) {
	var p PaymentSelection

	provider = strings.TrimSpace(provider)
	if provider == "" {
		return p, errors.New("payment provider is blank")
	}

	method = strings.TrimSpace(method)
	if method == "" {
		return p, errors.New("payment method is blank")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return p, errors.New("authorization token is blank")
	}

	return PaymentSelection{
		Provider:           provider,
		Method:             method,
		AuthorizationToken: token,
	}, nil
}
