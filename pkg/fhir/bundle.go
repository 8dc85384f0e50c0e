package fhir

import "encoding/json"

// Bundle is a FHIR Bundle resource, used for transactional uploads.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry is one resource inside a bundle.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
}

// BundleRequest describes the server operation for a transaction entry.
type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}
