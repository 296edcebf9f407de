// Package common holds the identifier and health types shared by every
// layer.
package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is a UUID v4 string.
type ID string

// UserID identifies the operator that submitted or verified a scan.
type UserID string

// TenantID scopes products, references, jobs and quota.
type TenantID string

// Validate checks if the ID is a valid UUID v4.
func (id ID) Validate() error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return fmt.Errorf("invalid ID format: %w", err)
	}
	return nil
}

// NewID generates a new UUID v4.
func NewID() ID {
	return ID(uuid.New().String())
}

// Validate rejects blank tenants.
func (t TenantID) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	return nil
}

// HealthStatus indicates the health of a component or service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth is one dependency's probe result.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message,omitempty"`
}

//Personal.AI order the ending
