// Package domain defines the core types and interfaces for the address service
package domain

import "strings"

// Components is the canonical parsed component set
type Components struct {
	HouseNumber string `json:"houseNumber,omitempty"`
	Direction   string `json:"direction,omitempty"`
	StreetName  string `json:"streetName,omitempty"`
	StreetType  string `json:"streetType,omitempty"`
	UnitType    string `json:"unitType,omitempty"`
	UnitNumber  string `json:"unitNumber,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// StreetLine assembles the house and street portion
func (c Components) StreetLine() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.HouseNumber, c.Direction, c.StreetName, c.StreetType} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Empty reports whether no component carries a value
func (c Components) Empty() bool {
	return c.StreetLine() == "" && c.UnitNumber == "" &&
		c.City == "" && c.State == "" && c.PostalCode == "" &&
		c.Country == "" && c.CountryCode == ""
}

// CacheKey is the composite lookup key for the result cache
func (c Components) CacheKey() string {
	return strings.ToLower(strings.Join([]string{
		c.HouseNumber, c.StreetName, c.StreetType, c.UnitNumber,
		c.City, c.State, c.PostalCode, c.CountryCode,
	}, "|"))
}

// Validated is what lands in a result's component fields: the merged
// component set plus which validation methods fired and any low-trust
// correction warnings
type Validated struct {
	Components
	Methods  []string `json:"methods,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Input carries one validation request: either free text or components
type Input struct {
	Address    string
	Components *Components
	ClientID   int64
}
