package adapter

import "time"

type Email struct {
	ID          string   `json:"id"`
	ThreadID    string   `json:"threadId"`
	Subject     string   `json:"subject"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Date        string   `json:"date"`
	Snippet     string   `json:"snippet"`
	IsRead      bool     `json:"isRead"`
	IsImportant bool     `json:"isImportant"`
	Labels      []string `json:"labels"`
	// Timestamp is the Gmail internal date in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

type EmailList struct {
	Emails       []Email `json:"emails"`
	TotalResults int64   `json:"totalResults"`
}

type EmailStats struct {
	TotalEmails  int64 `json:"totalEmails"`
	UnreadEmails int64 `json:"unreadEmails"`
	SentEmails   int64 `json:"sentEmails"`
}

type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type EmailAnalysis struct {
	TotalEmails    int           `json:"totalEmails"`
	UnreadCount    int           `json:"unreadCount"`
	ImportantCount int           `json:"importantCount"`
	TopSenders     []SenderCount `json:"topSenders"`
	EmailTrends    []DayCount    `json:"emailTrends"`
	PriorityEmails []Email       `json:"priorityEmails"`
}

type AnalyticsPoint struct {
	Date     string `json:"date"`
	Sessions int64  `json:"sessions"`
	Users    int64  `json:"users"`
}

type AnalyticsOverview struct {
	Sessions   int64            `json:"sessions"`
	Users      int64            `json:"users"`
	Pageviews  int64            `json:"pageviews"`
	BounceRate float64          `json:"bounceRate"`
	ChartData  []AnalyticsPoint `json:"chartData"`
}

type CalendarEvent struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	AllDay      bool     `json:"allDay"`
	Attendees   []string `json:"attendees"`
	Link        string   `json:"link,omitempty"`
}

type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	URL         string    `json:"url"`
	Private     bool      `json:"private"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	OpenIssues  int       `json:"openIssues"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Topic     string `json:"topic,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	Members   int    `json:"members"`
	IsPrivate bool   `json:"isPrivate"`
}

type Message struct {
	User       string `json:"user"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	ReplyCount int    `json:"replyCount"`
}

type SalesPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// SalesData amounts are in major currency units.
type SalesData struct {
	TotalRevenue      float64      `json:"totalRevenue"`
	TotalOrders       int          `json:"totalOrders"`
	AverageOrderValue float64      `json:"averageOrderValue"`
	Currency          string       `json:"currency"`
	Trend             []SalesPoint `json:"trend"`
}

type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Currency   string    `json:"currency,omitempty"`
	Delinquent bool      `json:"delinquent"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"productType,omitempty"`
	Status      string    `json:"status"`
	Price       string    `json:"price,omitempty"`
	Inventory   int       `json:"inventory"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
