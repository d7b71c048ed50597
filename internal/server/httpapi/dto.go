package httpapi

import "github.com/dmitrijs2005/todos/internal/server/models"

type listResponse struct {
	Items      []*models.Todo `json:"items"`
	NextKey    string         `json:"nextKey,omitempty"`
	TotalItems int            `json:"totalItems"`
	ItemsLimit int            `json:"itemsLimit"`
}

type itemResponse struct {
	Item *models.Todo `json:"item"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
}
