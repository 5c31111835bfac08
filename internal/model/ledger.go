package model

import "time"

// User is a ledger owner with a running signed CO2 total
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	TotalCO2  float64   `json:"total_co2"` // positive => saved, negative => emitted
}

// DisplayName returns the user's name or a short anonymous label
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	short := u.ID
	if len(short) > 6 {
		short = short[:6]
	}
	return "User-" + short
}

// LogEntry is one persisted activity
type LogEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"` // Original user text
	Activity  string    `json:"activity"`
	Category  Category  `json:"category"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	CO2       float64   `json:"co2"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes a single user's ledger
type Stats struct {
	User       User    `json:"user"`
	Entries    int     `json:"entries"`
	EmittedCO2 float64 `json:"emitted_co2"` // Sum of negative entries (<= 0)
	SavedCO2   float64 `json:"saved_co2"`   // Sum of positive entries (>= 0)
}

// LeaderboardRow is one ranked user
type LeaderboardRow struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	TotalCO2 float64 `json:"total_co2"`
}
