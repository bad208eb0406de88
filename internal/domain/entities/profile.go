package entities

import (
	"strings"
	"time"
)

// DeliveryType is the childbirth mode; it selects the recovery timeline.
type DeliveryType string

const (
	DeliveryVaginal  DeliveryType = "vaginal"
	DeliveryCesarean DeliveryType = "cesarean"
)

// ParseDeliveryType maps stored or user-supplied values to a DeliveryType.
// Anything unrecognised falls back to vaginal.
func ParseDeliveryType(value string) DeliveryType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cesarean", "caesarean", "c-section", "csection", "c_section":
		return DeliveryCesarean
	default:
		return DeliveryVaginal
	}
}

// SenderProfile holds the per-sender preferences and delivery context.
type SenderProfile struct {
	ID                string       `json:"id" db:"id"`
	SenderID          string       `json:"sender_id" db:"sender_id"`
	PreferredLanguage Language     `json:"preferred_language" db:"preferred_language"`
	ConsentGiven      bool         `json:"consent_given" db:"consent_given"`
	DeliveryType      DeliveryType `json:"delivery_type" db:"delivery_type"`
	DeliveryDate      *time.Time   `json:"delivery_date,omitempty" db:"delivery_date"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// EmergencyContact is notified when a sender reports a red-tier symptom.
type EmergencyContact struct {
	ID           string    `json:"id" db:"id"`
	SenderID     string    `json:"sender_id" db:"sender_id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	Relationship string    `json:"relationship" db:"relationship"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
