package dto

type DailySales struct {
	Date     string `json:"date"` // YYYY-MM-DD, UTC
	Quantity int64  `json:"quantity"`
}

type CustomerSales struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	SalesCount int    `json:"salesCount"`
}

type Drift struct {
	ProductID        string `json:"productId"`
	Name             string `json:"name"`
	RecordedQuantity int64  `json:"recordedQuantity"`
	ReplayedQuantity int64  `json:"replayedQuantity"`
}

type Summary struct {
	TotalProducts int `json:"totalProducts"`
	TotalSales    int `json:"totalSales"` // deduct transactions
	LowStockCount int `json:"lowStockCount"`
}
