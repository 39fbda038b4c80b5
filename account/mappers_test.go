package account

import (
	"testing"
	"time"
)

func TestJoinPhones(t *testing.T) {
	cases := []struct {
		name               string
		primary, secondary string
		want               string
	}{
		{"primary only", "99887766", "", "99887766"},
		{"both", "99887766", "+11223344", "99887766;+11223344"},
		{"trims both", " 99887766 ", " +11223344 ", "99887766;+11223344"},
		{"secondary whitespace only", "99887766", "   ", "99887766"},
		{"empty", "", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := joinPhones(tc.primary, tc.secondary); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegisterToCustomer(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := RegisterInput{
		TxtUser:   " newuser ",
		TxtPass:   "hunter22",
		TxtName:   " New User ",
		TxtPhone:  "99887766",
		TxtPhone2: "+11223344",
		AffID:     "aff42",
	}

	got := RegisterToCustomer(in, now)

	if got.User != "newuser" {
		t.Fatalf("user %q", got.User)
	}
	if got.Email != "newuser" {
		t.Fatalf("email must mirror the username, got %q", got.Email)
	}
	if got.Fullname != "New User" {
		t.Fatalf("fullname %q", got.Fullname)
	}
	if got.Phone != "99887766;+11223344" {
		t.Fatalf("phone %q", got.Phone)
	}
	if got.AffCode != "aff42" {
		t.Fatalf("aff code %q", got.AffCode)
	}
	if got.CreatedOnMobiDesktop != "MOBI" {
		t.Fatalf("channel %q", got.CreatedOnMobiDesktop)
	}
	if !got.DateCreated.Equal(now) || !got.LastLogin.Equal(now) {
		t.Fatalf("timestamps %v / %v", got.DateCreated, got.LastLogin)
	}
	if got.CustomerID != 0 {
		t.Fatalf("identifier must come from the sequence, got %d", got.CustomerID)
	}
}

func TestCustomerToAuth(t *testing.T) {
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := Customer{
		CustomerID:     7,
		User:           "ana",
		Password:       "secret-hash",
		Phone:          "99887766",
		Fullname:       "Ana",
		LoginCount:     3,
		PopupCount:     1,
		BankList:       "bank-a",
		UserLastUpdate: &updated,
	}

	got := CustomerToAuth(c)

	want := AuthCustomer{
		ID:             7,
		Username:       "ana",
		Phone:          "99887766",
		Fullname:       "Ana",
		LoginCount:     3,
		PopupCount:     1,
		BankList:       "bank-a",
		UserLastUpdate: &updated,
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUpdateToPatch(t *testing.T) {
	patch := UpdateToPatch(UpdateInput{
		TxtUser:   "ana",
		TxtName:   " Ana Updated ",
		TxtPhone:  "99887766",
		TxtPhone2: "+11223344",
	})

	if len(patch) != 2 {
		t.Fatalf("patch must touch only fullname and phone, got %v", patch)
	}
	if patch["fullname"] != "Ana Updated" {
		t.Fatalf("fullname %v", patch["fullname"])
	}
	if patch["phone"] != "99887766;+11223344" {
		t.Fatalf("phone %v", patch["phone"])
	}
}
