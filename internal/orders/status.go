package orders

// Order lifecycle. Pending is entered only via a successful atomic
// commit; completed and cancelled are terminal. Transitions are
// operator-triggered field updates with no further business rule beyond
// enum membership.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Scheduling types.
const (
	SchedulingImmediate = "immediate"
	SchedulingReserved  = "reserved"
)

// Payment and delivery methods accepted at the boundary.
const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"

	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
)

// EtaMinutes is the congestion heuristic for immediate orders: a flat
// base estimate, stepped up once by a fixed increment while the count of
// active (pending + processing) orders sits above the threshold. A step
// function, not a queueing model.
func EtaMinutes(baseMinutes, busyMinutes int, activeOrders int64, busyThreshold int) int {
	if activeOrders > int64(busyThreshold) {
		return baseMinutes + busyMinutes
	}
	return baseMinutes
}
