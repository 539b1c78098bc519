package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicItemAdded       = "cart.item_added"
	TopicQuantityChanged = "cart.quantity_changed"
	TopicItemRemoved     = "cart.item_removed"
	TopicCartReset       = "cart.reset"
	TopicProductCreated  = "product.created"
)
