package dto

type VerifyRequest struct {
	UserID             string `json:"user_id,omitempty"`
	OrderID            string `json:"orderId,omitempty"`
	ProductID          string `json:"productId"`
	PurchaseToken      string `json:"purchaseToken,omitempty"`
	TransactionReceipt string `json:"transactionReceipt,omitempty"`
}

type VerifyResponse struct {
	OK    bool   `json:"ok"`
	Grant string `json:"grant"`
}
