package dto

import "github.com/yukikurage/coaching-plans-api/internal/services"

// ChatResponse is the assistant's answer to a chat message
type ChatResponse struct {
	Kind      services.ChatReplyKind `json:"kind"`
	Message   string                 `json:"message"`
	Plan      *services.PlanDraft    `json:"plan,omitempty"`
	Saved     bool                   `json:"saved"`
	SavedPlan *PlanDTO               `json:"saved_plan,omitempty"`
}

// ToChatResponse converts a chat result
func ToChatResponse(result *services.ChatResult) ChatResponse {
	resp := ChatResponse{
		Kind:    result.Kind,
		Message: result.Message,
		Plan:    result.Plan,
		Saved:   result.Saved,
	}
	if result.SavedPlan != nil {
		saved := ToPlanDTO(*result.SavedPlan)
		resp.SavedPlan = &saved
	}
	return resp
}
