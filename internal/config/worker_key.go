package config

type WorkerKeyStruct struct {
	PersistNotificationsQueue string
	// DeadNotificationsQueue keeps notifications that exhausted their insert retries.
	DeadNotificationsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistNotificationsQueue: "persist_notifications_queue",
	DeadNotificationsQueue:    "dead_notifications_queue",
}
