package account

import (
	"strings"
	"time"
)

// Pure per-direction mapping functions between wire payloads and persisted
// documents. Each is independently testable; none mutates its input.

// joinPhones combines the primary and optional secondary phone into the
// single persisted phone field.
func joinPhones(primary, secondary string) string {
	phone := strings.TrimSpace(primary)
	if s := strings.TrimSpace(secondary); s != "" {
		phone += ";" + s
	}
	return phone
}

// RegisterToCustomer maps a registration payload to a new customer document.
// Password carries the raw input; the service replaces it with the hash
// before persisting.
func RegisterToCustomer(in RegisterInput, now time.Time) Customer {
	user := strings.TrimSpace(in.TxtUser)
	return Customer{
		AffCode:              in.AffID,
		User:                 user,
		Email:                user,
		Password:             in.TxtPass,
		Fullname:             strings.TrimSpace(in.TxtName),
		Phone:                joinPhones(in.TxtPhone, in.TxtPhone2),
		CreatedOnMobiDesktop: "MOBI",
		DateCreated:          now,
		LastLogin:            now,
	}
}

// CustomerToAuth projects a customer document onto the claim set embedded in
// tokens.
func CustomerToAuth(c Customer) AuthCustomer {
	return AuthCustomer{
		ID:             c.CustomerID,
		Username:       c.User,
		Phone:          c.Phone,
		Fullname:       c.Fullname,
		LoginCount:     c.LoginCount,
		PopupCount:     c.PopupCount,
		BankList:       c.BankList,
		UserLastUpdate: c.UserLastUpdate,
	}
}

// UpdateToPatch maps a profile-update payload to the store patch applied via
// findOneAndUpdate. Keys are wire field names.
func UpdateToPatch(in UpdateInput) map[string]any {
	return map[string]any{
		"fullname": strings.TrimSpace(in.TxtName),
		"phone":    joinPhones(in.TxtPhone, in.TxtPhone2),
	}
}
