package model

import "time"

// Category groups lotteries.  Names are kept in English, Kurdish and Arabic.
type Category struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	NameKu    string    `json:"name_ku"`
	NameAr    string    `json:"name_ar"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}
