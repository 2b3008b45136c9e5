package respool

// Stats is the aggregated snapshot both pool types report: size is always
// available+used, never counting wasted empty slots as part of the
// logical size.
type Stats struct {
	Size      int
	Available int
	Used      int
}

// AsyncStats adds the pending-request queue depth async pools carry.
type AsyncStats struct {
	Stats
	QueueSize int
}
