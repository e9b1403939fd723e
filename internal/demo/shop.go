package demo

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/relview/pkg/domain"
)

// Customer is a shop account.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Address is a shipping address.
type Address struct {
	Street string `json:"street" mapstructure:"street"`
	City   string `json:"city" mapstructure:"city"`
	Zip    string `json:"zip" mapstructure:"zip"`
}

// Problems returns the missing fields of a.
func (a Address) Problems() map[string]any {
	out := make(map[string]any)
	if a.Street == "" {
		out["street"] = "this field is required"
	}
	if a.City == "" {
		out["city"] = "this field is required"
	}
	if a.Zip == "" {
		out["zip"] = "this field is required"
	}
	return out
}

func (a Address) asMap() map[string]any {
	return map[string]any{"street": a.Street, "city": a.City, "zip": a.Zip}
}

// Shop is an in-memory catalogue of customers, orders and addresses.
type Shop struct {
	mu        sync.RWMutex
	customers map[string]Customer
	orders    map[string][]map[string]any
	addresses map[string][]Address
}

// NewShop returns a shop seeded with sample data.
func NewShop() *Shop {
	s := &Shop{
		customers: map[string]Customer{
			"c1": {ID: "c1", Name: "Ada Lovelace", Email: "ada@example.com"},
			"c2": {ID: "c2", Name: "Alan Turing", Email: "alan@example.com"},
		},
		orders:    make(map[string][]map[string]any),
		addresses: make(map[string][]Address),
	}
	s.orders["c1"] = []map[string]any{
		{"id": 1, "status": "delivered", "total": 30.0, "placed": "2024-01-12"},
		{"id": 2, "status": "shipped", "total": 12.5, "placed": "2024-02-03"},
		{"id": 3, "status": "pending", "total": 99.9, "placed": "2024-03-21"},
		{"id": 4, "status": "delivered", "total": 7.0, "placed": "2024-03-30"},
	}
	s.orders["c2"] = []map[string]any{
		{"id": 5, "status": "pending", "total": 42.0, "placed": "2024-04-01"},
	}
	s.addresses["c1"] = []Address{{Street: "12 St James's Square", City: "London", Zip: "SW1Y 4JH"}}
	return s
}

// Customer returns the customer with id.
func (s *Shop) Customer(id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, fmt.Errorf("%w: customer %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// Orders returns the orders of a customer as filterable rows.
func (s *Shop) Orders(customerID string) ([]any, error) {
	if _, err := s.Customer(customerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]any, 0, len(s.orders[customerID]))
	for _, o := range s.orders[customerID] {
		row := make(map[string]any, len(o))
		for k, v := range o {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Addresses returns the addresses of a customer, most recent last.
func (s *Shop) Addresses(customerID string) ([]Address, error) {
	if _, err := s.Customer(customerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Address(nil), s.addresses[customerID]...), nil
}

// AddAddress records a as the current address of a customer.
func (s *Shop) AddAddress(customerID string, a Address) error {
	if _, err := s.Customer(customerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[customerID] = append(s.addresses[customerID], a)
	return nil
}

// Customers returns every customer ordered by id.
func (s *Shop) Customers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Customer) int { return strings.Compare(a.ID, b.ID) })
	return out
}
