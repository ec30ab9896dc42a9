package dto

type CancellationRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=client therapist"`
	Reason      string `json:"reason" validate:"max=1000"`
}

type ContactLinksQuery struct {
	Phone   string `query:"phone" validate:"required"`
	Message string `query:"message"`
}
