package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(TaskExpireStaleBoletos, ExpireStaleBoletosHandler)
}
