package models

import "time"

// APIResponse is the envelope every backend endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Credential is what the identity provider hands to the core
type Credential struct {
	UserID      string
	DisplayName string
	Token       string
}

// Valid reports whether the credential can authorize a call
func (c Credential) Valid() bool {
	return c.UserID != "" && c.Token != ""
}

// Author returns the creator record used for locally synthesized comments
func (c Credential) Author() *Creator {
	name := c.DisplayName
	if name == "" {
		name = c.UserID
	}
	return &Creator{ID: c.UserID, DisplayName: name}
}
