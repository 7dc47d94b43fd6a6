package models

import (
	"database/sql"
	"time"
)

type Employee struct {
	ID        uint
	Name      string
	Team      sql.NullString
	Shift     sql.NullString
	CreatedAt time.Time
}

type EmployeeAlias struct {
	ID         uint
	Alias      string
	EmployeeID uint
}

type Channel struct {
	ID   uint
	Name string
}

type Status struct {
	ID   uint
	Name string
}

type Interaction struct {
	ID            uint
	ReferenceTS   time.Time
	Shift         string
	Protocol      sql.NullString
	Direction     sql.NullString
	WaitSeconds   int
	HandleSeconds int
	SolutionScore sql.NullFloat64
	ServiceScore  sql.NullFloat64
	EmployeeID    uint
	ChannelID     uint
	StatusID      uint
	CreatedAt     time.Time
}

type DailyProductivity struct {
	ID                uint
	ReferenceDate     time.Time
	ClientsServed     int
	Interactions      int
	FinalizedRequests int
	EmployeeID        uint
	CreatedAt         time.Time
}

type Upload struct {
	ID             string
	Filename       string
	FileHash       string
	Status         string
	ImportedCount  int
	DuplicateCount int
	ErrorText      sql.NullString
	CreatedAt      time.Time
	ProcessedAt    sql.NullTime
}
