// Package fhir holds the minimal FHIR R4 resource surface exchanged with
// VSAC and downstream terminology servers.
package fhir

import "encoding/json"

// ValueSet is a FHIR ValueSet resource. Envelope fields the tool does not
// interpret (meta, text, compose, identifier) are carried as raw JSON so
// they round-trip untouched.
type ValueSet struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id,omitempty"`
	Meta         json.RawMessage `json:"meta,omitempty"`
	Text         json.RawMessage `json:"text,omitempty"`
	URL          string          `json:"url,omitempty"`
	Identifier   json.RawMessage `json:"identifier,omitempty"`
	Version      string          `json:"version,omitempty"`
	Name         string          `json:"name,omitempty"`
	Title        string          `json:"title,omitempty"`
	Status       string          `json:"status,omitempty"`
	Experimental *bool           `json:"experimental,omitempty"`
	Date         string          `json:"date,omitempty"`
	Publisher    string          `json:"publisher,omitempty"`
	Description  string          `json:"description,omitempty"`
	Purpose      string          `json:"purpose,omitempty"`
	Compose      json.RawMessage `json:"compose,omitempty"`
	Expansion    *Expansion      `json:"expansion,omitempty"`
}

// Expansion is the enumerated member codes of a value set, one page or
// merged.
type Expansion struct {
	Identifier string      `json:"identifier,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
	Total      *int        `json:"total,omitempty"`
	Offset     *int        `json:"offset,omitempty"`
	Parameter  []Parameter `json:"parameter,omitempty"`
	Contains   []Concept   `json:"contains,omitempty"`
}

// Parameter is an expansion parameter (page size, filter, version, ...).
type Parameter struct {
	Name         string `json:"name"`
	ValueString  string `json:"valueString,omitempty"`
	ValueInteger *int   `json:"valueInteger,omitempty"`
	ValueBoolean *bool  `json:"valueBoolean,omitempty"`
}

// Concept is one member code of an expansion.
type Concept struct {
	System  string `json:"system,omitempty"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}
