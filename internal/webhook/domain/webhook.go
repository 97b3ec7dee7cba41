// Package domain defines privacy webhook topics, payloads, and contracts.
package domain

// Request headers set by the platform on webhook deliveries.
const (
	// HeaderSignature carries the base64 HMAC-SHA256 of the raw request body.
	HeaderSignature = "X-Wishcraft-Hmac-Sha256"
	// HeaderTopic names the webhook topic.
	HeaderTopic = "X-Wishcraft-Topic"
	// HeaderShopDomain names the shop the delivery belongs to.
	HeaderShopDomain = "X-Wishcraft-Shop-Domain"
	// HeaderWebhookID is the platform's unique delivery identifier, reused on
	// retries of the same delivery.
	HeaderWebhookID = "X-Wishcraft-Webhook-Id"
)

// Topic identifies a privacy webhook topic.
type Topic string

// Mandatory privacy topics.
const (
	TopicCustomersDataRequest Topic = "customers/data_request"
	TopicCustomersRedact      Topic = "customers/redact"
	TopicShopRedact           Topic = "shop/redact"
)

// Customer identifies the data subject in customer-scoped payloads.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CustomersDataRequestPayload is the body of a customers/data_request delivery.
type CustomersDataRequestPayload struct {
	ShopID        int64    `json:"shop_id"`
	ShopDomain    string   `json:"shop_domain"`
	Customer      Customer `json:"customer"`
	OrdersRequest []int64  `json:"orders_requested,omitempty"`
	DataRequest   struct {
		ID int64 `json:"id"`
	} `json:"data_request"`
}

// CustomersRedactPayload is the body of a customers/redact delivery.
type CustomersRedactPayload struct {
	ShopID         int64    `json:"shop_id"`
	ShopDomain     string   `json:"shop_domain"`
	Customer       Customer `json:"customer"`
	OrdersToRedact []int64  `json:"orders_to_redact,omitempty"`
}

// ShopRedactPayload is the body of a shop/redact delivery, sent after the app
// is uninstalled from a shop.
type ShopRedactPayload struct {
	ShopID     int64  `json:"shop_id"`
	ShopDomain string `json:"shop_domain"`
}
