package models

import (
	"regexp"
	"strings"
)

// DeliveryMethod represents how a purchase reaches the student
type DeliveryMethod string

const (
	DeliveryPickup    DeliveryMethod = "pickup"
	DeliveryClassroom DeliveryMethod = "classroom-delivery"
)

// MissingInformation is the message shown when the checkout form is incomplete
const MissingInformation = "Missing Information"

var contactEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ContactInfo is the checkout form data collected before payment
type ContactInfo struct {
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	RoomTeacher    string         `json:"roomTeacher,omitempty"`
}

// Normalize trims the form values, applies the pickup default and drops the
// room/teacher field when it does not apply.
func (c ContactInfo) Normalize() ContactInfo {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.RoomTeacher = strings.TrimSpace(c.RoomTeacher)
	if c.DeliveryMethod == "" {
		c.DeliveryMethod = DeliveryPickup
	}
	if c.DeliveryMethod != DeliveryClassroom {
		c.RoomTeacher = ""
	}
	return c
}

// Validate checks the required fields of a normalized contact form
func (c ContactInfo) Validate() error {
	verr := NewValidationError(MissingInformation)

	if c.FirstName == "" {
		verr.Add("firstName", "First name is required")
	}
	if c.LastName == "" {
		verr.Add("lastName", "Last name is required")
	}
	if c.Email == "" {
		verr.Add("email", "Email is required")
	} else if !contactEmailRegex.MatchString(c.Email) {
		verr.Add("email", "Please enter a valid email address")
	}
	if c.Phone == "" {
		verr.Add("phone", "Phone number is required")
	}

	switch c.DeliveryMethod {
	case DeliveryPickup:
	case DeliveryClassroom:
		if c.RoomTeacher == "" {
			verr.Add("roomTeacher", "Room number / teacher is required for classroom delivery")
		}
	default:
		verr.Add("deliveryMethod", "Delivery method must be pickup or classroom-delivery")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// FullName returns the first and last name joined by a space
func (c ContactInfo) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
