package entity

type User struct {
	Base

	Name  string
	Email string `gorm:"unique"`

	// StoreCredit is the balance credited by instant-win prizes.
	StoreCredit float64

	IsAdmin bool
}
