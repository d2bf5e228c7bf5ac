package dto

// TitleRequest asks for titles for arbitrary content.
type TitleRequest struct {
	Keyword string `json:"keyword" validate:"required,min=1,max=100"`
	Content string `json:"content" validate:"required,min=1,max=20000"`
}
