package model

import (
	"bytes"
	"fmt"
	"time"
)

type Genre string

const (
	GenreNarrativo Genre = "narrativo"
	GenreLirico    Genre = "lirico"
	GenreDidactico Genre = "didactico"
	GenreDramatico Genre = "dramatico"
)

type Book struct {
	ID              int       `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	Isbn            string    `json:"isbn" db:"isbn"`
	Description     string    `json:"description" db:"description"`
	Price           *float64  `json:"price" db:"price"`
	PublicationDate Date      `json:"publicationDate" db:"publication_date" swaggertype:"string" example:"2023-05-01"`
	Genre           Genre     `json:"genre" db:"genre"`
	Available       bool      `json:"available" db:"available"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// BookRequest is the body of create and full update. Every descriptive field is required.
type BookRequest struct {
	Title           string   `json:"title" validate:"required,min=3,max=100"`
	Author          string   `json:"author" validate:"required,max=100"`
	Isbn            string   `json:"isbn" validate:"required,min=10,max=13"`
	Description     string   `json:"description" validate:"required"`
	Price           *float64 `json:"price" validate:"omitempty,gte=1.1"`
	PublicationDate string   `json:"publicationDate" validate:"required,datetime=2006-01-02" example:"2023-05-01"`
	Genre           Genre    `json:"genre" validate:"required,oneof=narrativo lirico didactico dramatico"`
}

// Book maps a validated request onto a new record. Available starts as true.
func (r BookRequest) Book() (Book, error) {
	d, err := ParseDate(r.PublicationDate)
	if err != nil {
		return Book{}, err
	}
	return Book{
		Title:           r.Title,
		Author:          r.Author,
		Isbn:            r.Isbn,
		Description:     r.Description,
		Price:           r.Price,
		PublicationDate: d,
		Genre:           r.Genre,
		Available:       true,
	}, nil
}

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for the date column.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("model.Date: cannot scan %T", src)
	}
}

type EventType string

const (
	EventCreated      EventType = "created"
	EventUpdated      EventType = "updated"
	EventAvailability EventType = "availability"
	EventDeleted      EventType = "deleted"
)

// BookEvent is published after every successful mutation.
type BookEvent struct {
	Type EventType `json:"type"`
	Book Book      `json:"book"`
	At   time.Time `json:"at"`
}
