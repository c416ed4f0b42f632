/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMERIC FIELDS:
  Numeric request fields accept either a JSON number or a string. The
  literal text is kept so the validator can tell 3 from 3.0.

VALIDATION:
  Validation is done by the validate package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - validate/validate.go: Params and Request
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/validate"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// literal keeps the raw text of a JSON string or number.
type literal string

func (l *literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = literal(s)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*l = literal(data)
	default:
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	return nil
}

// BatchRequest is the request to validate or plan a batch.
type BatchRequest struct {
	StationName      string  `json:"stationName"`
	FuelRate         literal `json:"fuelRate"`
	Template         literal `json:"template"`
	TotalAmount      literal `json:"totalAmount"`
	NumberOfBills    literal `json:"numberOfBills"`
	MaxAmountPerBill literal `json:"maxAmountPerBill"`
	StartDate        string  `json:"startDate"`
	EndDate          string  `json:"endDate"`
	MinSpacingDays   literal `json:"minSpacingDays,omitempty"`
}

// Params converts the request to validator input.
func (r BatchRequest) Params() validate.Params {
	return validate.Params{
		StationName:      r.StationName,
		FuelRate:         string(r.FuelRate),
		Template:         string(r.Template),
		TotalAmount:      string(r.TotalAmount),
		NumberOfBills:    string(r.NumberOfBills),
		MaxAmountPerBill: string(r.MaxAmountPerBill),
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		MinSpacingDays:   string(r.MinSpacingDays),
	}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ValidationDTO is the validator outcome.
type ValidationDTO struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// PlanDTO is a planned batch.
type PlanDTO struct {
	ID      string           `json:"id"`
	Request validate.Request `json:"request"`
	Total   string           `json:"total"`
	Units   []batch.Unit     `json:"units"`
}

// ReceiptListDTO lists receipt documents in the workspace.
type ReceiptListDTO struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// MergeResultDTO reports a merge of workspace receipts.
type MergeResultDTO struct {
	Output  string   `json:"output"`
	Sources []string `json:"sources"`
	Pages   int      `json:"pages"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	Details    any      `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
	Index      *int     `json:"index,omitempty"`
}
