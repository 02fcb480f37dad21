package dto

// AuditFilter is bound from query string of GET /v1/audit.
type AuditFilter struct {
	ActorID   string `form:"actor_id"  validate:"omitempty,uuid"`
	Operation string `form:"operation"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type AuditRecordResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	Operation  string `json:"operation"`
	EntityType string `json:"entity_type"`
	EntityIDs  string `json:"entity_ids"`
	CreatedAt  string `json:"created_at"`
}

type AuditListResponse struct {
	Data  []AuditRecordResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
