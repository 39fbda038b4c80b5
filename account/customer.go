// Package account implements the customer-facing operations: registration,
// login, token refresh, profile update and existence checks, on top of the
// document store, the caching layer and the sequence allocator.
package account

import "time"

// Collection and entity names shared with the seeds and the DI container.
const (
	CustomersCollection = "customers"
	ConfigsCollection   = "configs"

	// EntityCustomerID names the sequence that assigns customer identifiers.
	EntityCustomerID = "CustomerId"

	// ConfigPriceCredit names the config row whose value becomes a new
	// customer's starting credit.
	ConfigPriceCredit = "PriceCredit"
)

// Customer is the persisted customer document. Field names follow the wire
// shape shared by the store adapters (bson for MongoDB, json for the memory
// store and HTTP responses).
type Customer struct {
	ID         string `bson:"_id" json:"id"`
	CustomerID int64  `bson:"customerId" json:"customerId"`
	AffCode    string `bson:"aff_code" json:"aff_code"`

	User     string `bson:"user" json:"user"`
	Password string `bson:"password" json:"password,omitempty"`
	Str      string `bson:"str" json:"str,omitempty"`
	ResetKey string `bson:"reset_key" json:"reset_key,omitempty"`

	Fullname string  `bson:"fullname" json:"fullname"`
	Phone    string  `bson:"phone" json:"phone"`
	Email    string  `bson:"email" json:"email"`
	Balance  float64 `bson:"balance" json:"balance"`
	Credit   string  `bson:"credit" json:"credit"`
	Status   bool    `bson:"status" json:"status"`

	LoginCount int64 `bson:"login_count" json:"login_count"`
	PopupCount int64 `bson:"popup_count" json:"popup_count"`

	BankList             string `bson:"bank_list" json:"bank_list"`
	TokenLogin           string `bson:"token_login" json:"token_login"`
	CreatedOnMobiDesktop string `bson:"created_on_mobi_desktop" json:"created_on_mobi_desktop"`

	DateCreated    time.Time  `bson:"date_created" json:"date_created"`
	LastLogin      time.Time  `bson:"last_login" json:"last_login"`
	UserLastUpdate *time.Time `bson:"user_last_update,omitempty" json:"user_last_update,omitempty"`
}

// Redacted returns a copy safe to hand to clients: credential material is
// stripped, everything else is kept.
func (c Customer) Redacted() Customer {
	c.Password = ""
	c.Str = ""
	c.ResetKey = ""
	return c
}

// AuthCustomer is the minimal projection embedded in token claims.
type AuthCustomer struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Phone          string     `json:"phone"`
	Fullname       string     `json:"fullname"`
	LoginCount     int64      `json:"loginCount"`
	PopupCount     int64      `json:"popupCount"`
	BankList       string     `json:"bankList"`
	UserLastUpdate *time.Time `json:"userLastUpdate,omitempty"`
}

// Config is a persisted configuration row. The VI/EN descriptions double as
// the value columns; PriceCredit keeps the starting credit in DescriptionVI.
type Config struct {
	ID            string `bson:"_id" json:"id"`
	Config        string `bson:"config" json:"config"`
	DescriptionVI string `bson:"description_VI" json:"description_VI"`
	DescriptionEN string `bson:"description_EN" json:"description_EN"`
	ImgURL        string `bson:"imgURL" json:"imgURL"`
	Status        bool   `bson:"status" json:"status"`
	Align         string `bson:"align" json:"align"`
	Width         string `bson:"width" json:"width"`
	Height        string `bson:"height" json:"height"`
}

// RegisterInput is the registration payload. Field names keep the original
// wire contract.
type RegisterInput struct {
	TxtUser       string `json:"txtuser"`
	TxtPass       string `json:"txtpass"`
	TxtPassRepeat string `json:"txtpass_repeat"`
	TxtName       string `json:"txtname"`
	TxtPhone      string `json:"txtphone"`
	TxtPhone2     string `json:"txtphone2"`
	AffID         string `json:"aff_id"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CheckInput asks whether a username is taken.
type CheckInput struct {
	Username string `json:"username"`
}

// UpdateInput is the profile-update payload.
type UpdateInput struct {
	TxtUser   string `json:"txtuser"`
	TxtName   string `json:"txtname"`
	TxtPhone  string `json:"txtphone"`
	TxtPhone2 string `json:"txtphone2"`
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
