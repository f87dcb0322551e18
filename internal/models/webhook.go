package models

// WebhookSubscription records a subscription installed on the shop so it
// can be updated in place or removed later.
type WebhookSubscription struct {
	ID    string       `json:"id" gorm:"primaryKey;size:255"`
	Topic WebhookTopic `json:"hook" gorm:"column:hook;size:64;uniqueIndex;not null"`
}

func (WebhookSubscription) TableName() string { return "storefront_webhooks" }

type WebhookTopic string

const (
	TopicProductsCreate    WebhookTopic = "PRODUCTS_CREATE"
	TopicProductsUpdate    WebhookTopic = "PRODUCTS_UPDATE"
	TopicProductsDelete    WebhookTopic = "PRODUCTS_DELETE"
	TopicCollectionsCreate WebhookTopic = "COLLECTIONS_CREATE"
	TopicCollectionsUpdate WebhookTopic = "COLLECTIONS_UPDATE"
	TopicCollectionsDelete WebhookTopic = "COLLECTIONS_DELETE"
	TopicOrdersCreate      WebhookTopic = "ORDERS_CREATE"
	TopicCheckoutsUpdate   WebhookTopic = "CHECKOUTS_UPDATE"
	TopicCheckoutsDelete   WebhookTopic = "CHECKOUTS_DELETE"
	TopicCustomersCreate   WebhookTopic = "CUSTOMERS_CREATE"
	TopicCustomersUpdate   WebhookTopic = "CUSTOMERS_UPDATE"
	TopicCustomersDelete   WebhookTopic = "CUSTOMERS_DELETE"
)

// SubscribedTopics is the set installed on the shop, in install order.
var SubscribedTopics = []WebhookTopic{
	TopicProductsCreate,
	TopicProductsUpdate,
	TopicProductsDelete,
	TopicCollectionsCreate,
	TopicCollectionsUpdate,
	TopicCollectionsDelete,
	TopicOrdersCreate,
	TopicCheckoutsUpdate,
	TopicCheckoutsDelete,
	TopicCustomersCreate,
	TopicCustomersUpdate,
	TopicCustomersDelete,
}
