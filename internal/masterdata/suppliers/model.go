package suppliers

import (
	"time"
)

// Supplier represents a supplier entity
type Supplier struct {
	ID          int64     `json:"supplier_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	LeadDays    int       `json:"lead_days"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
