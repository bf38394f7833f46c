package domain

// PlatformStats is the administrator's overview across all organizations.
type PlatformStats struct {
	Users             int
	Organizations     int
	Events            int
	PublishedEvents   int
	PaidOrders        int
	TicketsIssued     int
	TicketsCheckedIn  int
	PendingPayouts    int
	OpenDisputes      int
	RevenueByCurrency map[string]int64
}

// CheckInStats summarises door activity for one event.
type CheckInStats struct {
	TicketsIssued    int
	TicketsCheckedIn int
	ScansByResult    map[CheckInResult]int
}
