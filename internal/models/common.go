package models

import "strconv"

// ErrorResponse is a standardized error response for API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// FormatID renders a database id in the string shape used at the API
// boundary and in the eligibility rules.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID converts a boundary identifier back to a database id. UUID-shaped
// identifiers belong to the other id space and never resolve here.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
