// Package domain defines the core types and interfaces for the name service
package domain

// Components is the structured output of a parsed personal name
type Components struct {
	Honorific string   `json:"honorific,omitempty"`
	First     string   `json:"first,omitempty"`
	Middle    []string `json:"middle,omitempty"`
	Last      string   `json:"last,omitempty"`
	Suffix    string   `json:"suffix,omitempty"`
}

// Input carries one validation request
type Input struct {
	Name     string
	ClientID int64
}
