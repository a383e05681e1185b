// Package domain defines the request and response shapes for the checks API
package domain

import (
	"encoding/json"

	addrdomain "cleanse/internal/services/address/domain"
	"cleanse/internal/services/batch"
)

// EmailRequest validates one email address
type EmailRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	ClientID int64  `json:"clientId" validate:"omitempty,min=0"`
}

// PhoneRequest validates one phone number
type PhoneRequest struct {
	Phone    string `json:"phone" validate:"required,max=64"`
	Country  string `json:"country" validate:"omitempty,iso_country"`
	Strict   bool   `json:"strict"`
	ClientID int64  `json:"clientId" validate:"omitempty,min=0"`
}

// AddressRequest validates one address, free text or structured
type AddressRequest struct {
	Address    string                 `json:"address" validate:"required_without=Components,max=512"`
	Components *addrdomain.Components `json:"components"`
	ClientID   int64                  `json:"clientId" validate:"omitempty,min=0"`
}

// NameRequest validates one personal name
type NameRequest struct {
	Name     string `json:"name" validate:"required,max=256"`
	ClientID int64  `json:"clientId" validate:"omitempty,min=0"`
}

// BatchRequest validates many items of one field type
// Items are either bare strings or the single-item request objects
type BatchRequest struct {
	Field           string            `json:"field" validate:"required,oneof=email phone address name"`
	Items           []json.RawMessage `json:"items" validate:"required,min=1,max=1000"`
	Concurrency     int               `json:"concurrency" validate:"omitempty,min=1,max=100"`
	DelayMs         int               `json:"delayMs" validate:"omitempty,min=0,max=60000"`
	ContinueOnError *bool             `json:"continueOnError"`
	ClientID        int64             `json:"clientId" validate:"omitempty,min=0"`
}

// BatchResponse carries per-item outcomes in input order
type BatchResponse struct {
	BatchID  string          `json:"batchId"`
	Field    string          `json:"field"`
	Count    int             `json:"count"`
	Outcomes []batch.Outcome `json:"outcomes"`
}

// HealthResponse reports service and provider breaker states
type HealthResponse struct {
	Status    string            `json:"status"`
	Providers map[string]string `json:"providers"`
}
