package tasks

// Task is a single to-do item. ID is assigned by the store on insert.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}
