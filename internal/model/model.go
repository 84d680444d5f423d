package model

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Appointment is one booked slot. Date is ISO (YYYY-MM-DD) and Time is HH:MM;
// DateDisplay is the DD/MM/YYYY rendering filled by list queries.
type Appointment struct {
	ID          int64
	Name        string
	Email       string
	Telephone   string
	Treatment   string
	BodyPart    string
	Date        string
	Time        string
	DateDisplay string
	CreatedAt   time.Time
}

// Treatments is the service catalogue shown on /servicos and offered by the booking form.
var Treatments = []string{
	"Depilação a laser",
	"Remoção de Tattoo/Micro",
	"Emagrecimento",
	"Tratamentos Faciais",
	"Tratamentos Corporais",
	"Tratamentos Capilares",
	"Micose de Unha a laser",
}
