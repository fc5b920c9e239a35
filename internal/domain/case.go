package domain

import (
	"strings"
	"time"
)

// Sentinel values written into CaseRecord fields. They are part of the
// published document, so they stay in Russian like the rest of the data.
const (
	DecisionNotFound   = "Не найдено"
	DecisionCheckError = "Ошибка при проверке"

	// EmbeddedSuffix marks a decisionLink that points at a decision rendered
	// inside the case page rather than at a downloadable file.
	EmbeddedSuffix = "#embedded_decision"

	NotSpecified     = "Не указан"
	DateNotSpecified = "не указана"
)

type CaseMovement struct {
	EventName   string     `json:"eventName"`
	EventResult string     `json:"eventResult"`
	Basis       string     `json:"basis"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
}

// CaseRecord is one court case as scraped from the listing and refined on its
// detail page. Listing fields are set by the result parser, then selectively
// overwritten by the decision extractor.
type CaseRecord struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	CaseNumber  string `json:"caseNumber"`
	CourtType   string `json:"courtType"`
	Description string `json:"description"`
	Subject     string `json:"subject"`

	FederalDistrict string `json:"federalDistrict"`
	Region          string `json:"region"`
	CaseCategory    string `json:"caseCategory"`
	CaseSubcategory string `json:"caseSubcategory"`
	CaseResult      string `json:"caseResult"`
	JudgeName       string `json:"judgeName"`

	// semicolon-joined, empty when absent
	Plaintiff       string `json:"plaintiff"`
	Defendant       string `json:"defendant"`
	ThirdParties    string `json:"thirdParties"`
	Representatives string `json:"representatives"`

	StartDate    *time.Time `json:"startDate,omitempty"`
	ReceivedDate *time.Time `json:"receivedDate,omitempty"`
	DecisionDate *time.Time `json:"decisionDate,omitempty"`

	HasDecision     bool   `json:"hasDecision"`
	DecisionLink    string `json:"decisionLink"`
	DecisionType    string `json:"decisionType"`
	DecisionContent string `json:"decisionContent,omitempty"`

	CaseMovements    []CaseMovement `json:"caseMovements"`
	OriginalCaseLink string         `json:"originalCaseLink"`
}

// ResetDecision puts the record into the unchecked state before a detail visit.
func (c *CaseRecord) ResetDecision() {
	c.HasDecision = false
	c.DecisionLink = ""
	c.DecisionType = DecisionNotFound
	c.DecisionContent = ""
	c.DecisionDate = nil
}

// MarkCheckError records a failed detail visit. Any partially found link is dropped.
func (c *CaseRecord) MarkCheckError() {
	c.HasDecision = false
	c.DecisionLink = ""
	c.DecisionType = DecisionCheckError
}

func (c *CaseRecord) IsEmbeddedDecision() bool {
	return c.HasDecision && strings.HasSuffix(c.DecisionLink, EmbeddedSuffix)
}

// DecisionConsistent reports whether the decision fields agree with HasDecision.
func (c *CaseRecord) DecisionConsistent() bool {
	if !c.HasDecision {
		return true
	}
	t := strings.TrimSpace(c.DecisionType)
	return t != "" && t != DecisionNotFound && t != DecisionCheckError && c.DecisionLink != ""
}

// EmbeddedLink builds the decisionLink for an in-page decision.
func EmbeddedLink(caseLink string) string {
	return caseLink + EmbeddedSuffix
}
