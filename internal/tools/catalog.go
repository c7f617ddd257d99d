package tools

import (
	"encoding/json"

	"taskchat/internal/llm"
)

// Catalogo fijo acordado fuera de banda con el tool server. No se descubren
// tools dinamicamente; agregar una tool es una decision de compile-time.
var catalog = []llm.Tool{
	tool("list_tasks", "List the user's tasks. Use status pending, completed or all.", `{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["pending", "completed", "all"]}
		}
	}`),
	tool("add_task", "Create a new task with a title and optional description.", `{
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"description": {"type": "string"}
		},
		"required": ["title"]
	}`),
	tool("complete_task", "Toggle the completion status of a task.", `{
		"type": "object",
		"properties": {
			"task_id": {"type": "integer"}
		},
		"required": ["task_id"]
	}`),
	tool("update_task", "Modify the title or description of a task.", `{
		"type": "object",
		"properties": {
			"task_id": {"type": "integer"},
			"title": {"type": "string"},
			"description": {"type": "string"}
		},
		"required": ["task_id"]
	}`),
	tool("delete_task", "Remove a task permanently.", `{
		"type": "object",
		"properties": {
			"task_id": {"type": "integer"}
		},
		"required": ["task_id"]
	}`),
}

func tool(name, description, params string) llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolSpec{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(params),
		},
	}
}

// Catalog devuelve las definiciones de tools para el backend de inferencia.
func Catalog() []llm.Tool {
	out := make([]llm.Tool, len(catalog))
	copy(out, catalog)
	return out
}

func known(name string) bool {
	for _, t := range catalog {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}
