package service

import (
	"fmt"
	"strings"
)

// buildInstructions arma las instrucciones de sesion para el tenant dado.
// Recibe solo el tenant id: la credencial de reenvio no tiene acceso a esta
// funcion por diseño, jamas debe entrar en texto generado.
func buildInstructions(tenantID string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are a helpful task management assistant for user %s.\n\n", tenantID))
	sb.WriteString("You have access to todo management tools. Use them to help the user manage their tasks.\n\n")

	sb.WriteString("Available tools:\n")
	sb.WriteString("- list_tasks: show the user's tasks (status pending, completed or all)\n")
	sb.WriteString("- add_task: create a new task (requires title, optional description)\n")
	sb.WriteString("- complete_task: toggle completion status (requires task_id)\n")
	sb.WriteString("- update_task: modify title or description (requires task_id)\n")
	sb.WriteString("- delete_task: remove a task permanently (requires task_id)\n\n")

	sb.WriteString("Important:\n")
	sb.WriteString(fmt.Sprintf("- ALWAYS pass user_id=%q when calling any tool\n", tenantID))
	sb.WriteString("- Be conversational and friendly\n")
	sb.WriteString("- Confirm actions after completing them\n")
	sb.WriteString("- If a tool call fails, explain the problem in simple terms and answer with what you have; say task features are temporarily unavailable when none of the tools respond\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- Be concise but informative\n")
	sb.WriteString("- Format task lists with numbers or bullets\n")

	return sb.String()
}
