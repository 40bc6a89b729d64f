package usecase

// ChannelRegistry is the realtime fan-out surface the use cases publish
// through. Implemented by the websocket manager; faked in tests. Broadcasts
// are best-effort to live connections only; durability belongs to the
// notification store.
type ChannelRegistry interface {
	BroadcastToOrder(orderID string, payload []byte, excludeUserID string)
	SendToUser(userID string, payload []byte)
	IsUserViewingOrder(orderID, userID string) bool
}
