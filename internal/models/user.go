package models

import "time"

// AccountUser owns accounts. User management itself lives outside this service.
type AccountUser struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"Pororo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
