package dataservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QueryRequest is the POST /query body. Nil location fields are sent as
// JSON null; an empty Years list asks for the latest assessment.
type QueryRequest struct {
	State    *string `json:"state"`
	District *string `json:"district"`
	Block    *string `json:"block"`
	Years    []int   `json:"years"`
}

// MarshalJSON keeps "years" a list even when the slice is nil.
func (r QueryRequest) MarshalJSON() ([]byte, error) {
	type alias QueryRequest
	a := alias(r)
	if a.Years == nil {
		a.Years = []int{}
	}
	return json.Marshal(a)
}

// StringOrNil maps "" to nil.
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// QueryResponse is the POST /query result.
type QueryResponse struct {
	LocationSummary LocationSummary `json:"locationSummary"`
	Years           []YearRecord    `json:"years"`
}

// LocationSummary echoes the resolved location; empty fields were not part
// of the query.
type LocationSummary struct {
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Block    string `json:"block,omitempty"`
}

// YearRecord is one assessment year.
type YearRecord struct {
	Year              int      `json:"year"`
	AnnualExtractable Quantity `json:"annual_extractable"`
	TotalExtraction   Quantity `json:"total_extraction"`
	StagePercent      Quantity `json:"stage_percent"`
	Categorization    string   `json:"categorization,omitempty"`
}

// #region quantity
// Quantity is a nullable number. The service sometimes sends numbers as
// strings; both forms decode.
type Quantity struct {
	Value float64
	Valid bool
}

// Some returns a present quantity.
func Some(v float64) Quantity { return Quantity{Value: v, Valid: true} }

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(q.Value)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*q = Quantity{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("quantity %q: %w", s, err)
		}
		*q = Some(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = Some(v)
	return nil
}

// #endregion quantity
