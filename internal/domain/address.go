package domain

import "time"

// Address is a user-owned shipping address as stored.
type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	Line2     string    `json:"line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddressSnapshot is the denormalized copy frozen onto an order. System
// fields (id, owner, timestamps) are stripped so a later address edit
// cannot retroactively change a placed order.
type AddressSnapshot struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FullName: a.FullName,
		Phone:    a.Phone,
		Line1:    a.Line1,
		Line2:    a.Line2,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
	}
}
