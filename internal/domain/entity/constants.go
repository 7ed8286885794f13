package entity

// InvoiceStatus is the lifecycle state of an invoice, persisted by name.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

var invoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:     true,
	InvoiceStatusSent:      true,
	InvoiceStatusPaid:      true,
	InvoiceStatusOverdue:   true,
	InvoiceStatusCancelled: true,
}

// IsValid reports enum membership.
func (s InvoiceStatus) IsValid() bool {
	return invoiceStatuses[s]
}

// String returns the persisted name.
func (s InvoiceStatus) String() string {
	return string(s)
}

// ProjectStage is the design/delivery stage of a project. Stages advance in
// declaration order.
type ProjectStage string

const (
	StageConcept      ProjectStage = "CONCEPT"
	StagePrelim       ProjectStage = "PRELIM"
	StageStatutory    ProjectStage = "STATUTORY"
	StageTender       ProjectStage = "TENDER"
	StageContract     ProjectStage = "CONTRACT"
	StageConstruction ProjectStage = "CONSTRUCTION"
	StageCompletion   ProjectStage = "COMPLETION"
)

// ProjectStages lists every stage in sequence order.
var ProjectStages = []ProjectStage{
	StageConcept,
	StagePrelim,
	StageStatutory,
	StageTender,
	StageContract,
	StageConstruction,
	StageCompletion,
}

// Ordinal returns the position of the stage in ProjectStages, or -1.
func (s ProjectStage) Ordinal() int {
	for i, stage := range ProjectStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage; the last stage and unknown stages return themselves.
func (s ProjectStage) Next() ProjectStage {
	i := s.Ordinal()
	if i < 0 || i == len(ProjectStages)-1 {
		return s
	}
	return ProjectStages[i+1]
}

// IsValid reports enum membership.
func (s ProjectStage) IsValid() bool {
	return s.Ordinal() >= 0
}

// ProjectStatus is the commercial status of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// ChargeType is how the project fee is agreed with the client.
type ChargeType string

const (
	ChargeTypePercentage ChargeType = "PERCENTAGE"
	ChargeTypeLumpSum    ChargeType = "LUMPSUM"
	ChargeTypePerSqft    ChargeType = "PER_SQFT"
	ChargeTypeHourly     ChargeType = "HOURLY"
)
