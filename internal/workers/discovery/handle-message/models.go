// internal/workers/discovery/handle-message/models.go
package handlemessage

import "product-discovery/internal/models"

// Input carries the job variables of a workflow caller.
type Input struct {
	Message  string           `json:"message"`
	UserID   string           `json:"userId"`
	Location *models.GeoPoint `json:"location,omitempty"`
}

func (i Input) Utterance() models.Utterance {
	return models.Utterance{Text: i.Message, UserID: i.UserID, Location: i.Location}
}

type Output struct {
	models.Reply
}

// Outcome labels how a message was answered.
type Outcome string

const (
	OutcomeMatched          Outcome = "matched"
	OutcomeRelaxed          Outcome = "relaxed"
	OutcomeEmpty            Outcome = "empty"
	OutcomeHelp             Outcome = "help"
	OutcomeStoreUnavailable Outcome = "store_unavailable"
	OutcomeRecovered        Outcome = "recovered"
)
