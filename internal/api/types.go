// Package api contains types for the API requests and responses.
package api

// Error messages returned to the survey platform. The "erro" key and the
// Portuguese wording are what the upstream REST service integration expects.
const (
	MsgMissingPayload  = "Dados JSON ausentes"
	MsgInvalidToken    = "Token inválido"
	MsgMissingWorkSite = "Campo obra obrigatório"
	MsgWorkSiteUnknown = "Obra não encontrada"
)

// StatusOK is the status value of a successful webhook response.
const StatusOK = "OK"

// WebhookResponse is returned when the record was created.
type WebhookResponse struct {
	Status     string `json:"status"`
	NotionPage string `json:"notion_page"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Erro string `json:"erro"`
}
