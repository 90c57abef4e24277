package model

import "time"

// Lottery is a draw users can buy tickets for until Deadline.
//
// Fields:
//  ID             – primary key identifier.
//  NameEn/Ku/Ar   – localized titles.
//  ContentEn/Ku/Ar – localized descriptions.
//  PricePerTicket – ticket price in the smallest currency unit.
//  Deadline       – purchases are accepted strictly before this instant.
//  CategoryID     – owning category.
//  Image          – public URL of the cover image.
//  AuthorID       – admin who created the lottery.
//  IsDeleted      – soft delete flag; deleted lotteries accept no purchases.
//  TicketsSold    – sum of purchase quantities, computed on read.
type Lottery struct {
	ID             uint64    `json:"id"`
	NameEn         string    `json:"name_en"`
	NameKu         string    `json:"name_ku"`
	NameAr         string    `json:"name_ar"`
	ContentEn      string    `json:"content_en"`
	ContentKu      string    `json:"content_ku"`
	ContentAr      string    `json:"content_ar"`
	PricePerTicket int64     `json:"price_per_ticket"`
	Deadline       time.Time `json:"deadline"`
	CategoryID     uint64    `json:"category_id"`
	Image          string    `json:"image"`
	AuthorID       *uint64   `json:"author_id,omitempty"`
	IsDeleted      bool      `json:"is_deleted"`
	TicketsSold    int64     `json:"tickets_sold"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OpenAt reports whether the lottery accepts purchases at now.
func (l Lottery) OpenAt(now time.Time) bool {
	return !l.IsDeleted && l.Deadline.After(now)
}
