package domain

import (
	"fmt"
	"strings"
)

type Purchaser struct {
	Name    string
	Surname string
	Email   string
}

func NewPurchaser(name, surname, email string) (Purchaser, error) {
	p := Purchaser{
		Name:    strings.TrimSpace(name),
		Surname: strings.TrimSpace(surname),
		Email:   strings.TrimSpace(email),
	}

	if p.Name == "" || p.Surname == "" || p.Email == "" {
		return Purchaser{}, ErrInvalidPurchaser
	}

	return p, nil
}

func (p Purchaser) FullName() string {
	return fmt.Sprintf("%s %s", p.Name, p.Surname)
}
