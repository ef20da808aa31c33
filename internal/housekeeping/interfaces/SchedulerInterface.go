package interfaces

// SchedulerInterface runs the background game jobs. Restore and Persist move
// sessions between the store and disk; Init and Stop bound the periodic
// sweep and snapshot loops.
type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}
