package packets

type ControlRequest struct {
	Action string `json:"action" binding:"required,oneof=next prev pause resume"`
}
