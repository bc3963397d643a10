package models

import "time"

const (
	PaymentStatusCreated = "created"
	PaymentStatusSuccess = "success"
)

const TicketStatusConfirmed = "confirmed"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LotterySettings is the configuration of one lottery round. At most one row
// is active at a time; when none exists the service falls back to
// lottery.DefaultSettings.
type LotterySettings struct {
	ID              int64      `json:"id"`
	Round           int        `json:"round"`
	TicketPrice     int64      `json:"ticketPrice"`
	TotalTickets    int        `json:"totalTickets"`
	TicketsReserved int        `json:"ticketsReserved"`
	DrawDate        *time.Time `json:"drawDate,omitempty"`
	BannerURL       string     `json:"bannerUrl,omitempty"`
	IsActive        bool       `json:"isActive"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Payment represents one purchase attempt. OrderID is the client-visible
// identifier; GatewayOrderID is the id assigned by the payment gateway.
type Payment struct {
	ID             int64     `json:"id"`
	OrderID        string    `json:"orderId"`
	GatewayOrderID string    `json:"gatewayOrderId,omitempty"`
	Amount         int64     `json:"amount"`
	Phone          string    `json:"phone"`
	Quantity       int       `json:"quantity"`
	Status         string    `json:"status"`
	UserID         int64     `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Ticket struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Round     int       `json:"round"`
	UserID    int64     `json:"userId"`
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Winner struct {
	ID          int64     `json:"id"`
	TicketCode  string    `json:"ticketCode"`
	PrizeAmount int64     `json:"prizeAmount"`
	Round       int       `json:"round"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WinnerEntry is the public winner listing row: prize plus the masked phone
// of the ticket holder.
type WinnerEntry struct {
	TicketCode  string `json:"ticketCode"`
	PrizeAmount int64  `json:"prizeAmount"`
	Round       int    `json:"round"`
	MaskedPhone string `json:"maskedPhone"`
	Name        string `json:"name,omitempty"`
}

// UserDetail is the admin view of a user with their tickets and wins.
type UserDetail struct {
	User    User     `json:"user"`
	Tickets []Ticket `json:"tickets"`
	Winners []Winner `json:"winners,omitempty"`
}

type LotteryStats struct {
	Round           int   `json:"round"`
	TotalTickets    int   `json:"totalTickets"`
	TicketsSold     int   `json:"ticketsSold"`
	Remaining       int   `json:"remaining"`
	TotalUsers      int   `json:"totalUsers"`
	TotalPayments   int   `json:"totalPayments"`
	PaidPayments    int   `json:"paidPayments"`
	RevenueRupees   int64 `json:"revenueRupees"`
	WinnersDeclared int   `json:"winnersDeclared"`
}
