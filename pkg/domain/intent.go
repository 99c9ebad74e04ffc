package domain

import "strconv"

// Kind identifies the variant of an Intent.
type Kind string

const (
	KindLoadPatient       Kind = "load_patient"
	KindShowSection       Kind = "show_section"
	KindSwitchTarget      Kind = "switch_target"
	KindActivateAssistant Kind = "activate_assistant"
	KindOrder             Kind = "order"
	KindShowWorklist      Kind = "show_worklist"
	KindCheckIn           Kind = "check_in"
	KindStartCapture      Kind = "start_capture"
	KindStopCapture       Kind = "stop_capture"
	KindGenerateNote      Kind = "generate_note"
	KindCreateMacro       Kind = "create_macro"
	KindShowHelp          Kind = "show_help"
	KindUnknown           Kind = "unknown"
)

// Kinds lists every intent kind in declaration order.
var Kinds = []Kind{
	KindLoadPatient,
	KindShowSection,
	KindSwitchTarget,
	KindActivateAssistant,
	KindOrder,
	KindShowWorklist,
	KindCheckIn,
	KindStartCapture,
	KindStopCapture,
	KindGenerateNote,
	KindCreateMacro,
	KindShowHelp,
	KindUnknown,
}

// Intent is one recognized action. The set of implementations is closed:
// only the types declared in this package satisfy it.
type Intent interface {
	Kind() Kind
	String() string
	intent()
}

// Section is the canonical name of a patient chart section.
type Section string

const (
	SectionVitals      Section = "vitals"
	SectionAllergies   Section = "allergies"
	SectionMedications Section = "medications"
	SectionLabs        Section = "labs"
	SectionProcedures  Section = "procedures"
	SectionConditions  Section = "conditions"
	SectionCarePlans   Section = "care-plans"
	SectionNotes       Section = "notes"
)

// Sections lists the canonical sections.
var Sections = []Section{
	SectionVitals,
	SectionAllergies,
	SectionMedications,
	SectionLabs,
	SectionProcedures,
	SectionConditions,
	SectionCarePlans,
	SectionNotes,
}

// OrderType classifies a clinical order.
type OrderType string

const (
	OrderLab        OrderType = "lab"
	OrderImaging    OrderType = "imaging"
	OrderMedication OrderType = "medication"
	// OrderGeneral is used when no classifying keyword was heard.
	OrderGeneral OrderType = "general"
)

// LoadPatient switches the active patient context.
// Identifier is a worklist index, an MRN or a spoken name.
type LoadPatient struct {
	Identifier string `json:"identifier"`
}

// ShowSection displays a chart section of the active patient.
type ShowSection struct {
	Section Section `json:"section"`
}

// SwitchTarget changes the connected EHR system.
type SwitchTarget struct {
	Target string `json:"target"`
}

// ActivateAssistant wakes the AI assistant. Query is empty when the
// assistant was only addressed.
type ActivateAssistant struct {
	Query string `json:"query,omitempty"`
}

// Order requests a lab, imaging study or medication.
type Order struct {
	Type    OrderType `json:"type"`
	Details string    `json:"details"`
}

type ShowWorklist struct{}

// CheckIn marks the worklist entry at Index (1-based) as arrived.
type CheckIn struct {
	Index int `json:"index"`
}

type StartCapture struct{}

type StopCapture struct{}

type GenerateNote struct{}

// CreateMacro defines a new macro from the rest of the utterance.
type CreateMacro struct {
	Trigger string   `json:"trigger"`
	Actions []Intent `json:"-"`
}

type ShowHelp struct{}

// Unknown carries a segment that matched no rule.
type Unknown struct {
	RawText string `json:"raw_text"`
}

func (LoadPatient) Kind() Kind       { return KindLoadPatient }
func (ShowSection) Kind() Kind       { return KindShowSection }
func (SwitchTarget) Kind() Kind      { return KindSwitchTarget }
func (ActivateAssistant) Kind() Kind { return KindActivateAssistant }
func (Order) Kind() Kind             { return KindOrder }
func (ShowWorklist) Kind() Kind      { return KindShowWorklist }
func (CheckIn) Kind() Kind           { return KindCheckIn }
func (StartCapture) Kind() Kind      { return KindStartCapture }
func (StopCapture) Kind() Kind       { return KindStopCapture }
func (GenerateNote) Kind() Kind      { return KindGenerateNote }
func (CreateMacro) Kind() Kind       { return KindCreateMacro }
func (ShowHelp) Kind() Kind          { return KindShowHelp }
func (Unknown) Kind() Kind           { return KindUnknown }

func (LoadPatient) intent()       {}
func (ShowSection) intent()       {}
func (SwitchTarget) intent()      {}
func (ActivateAssistant) intent() {}
func (Order) intent()             {}
func (ShowWorklist) intent()      {}
func (CheckIn) intent()           {}
func (StartCapture) intent()      {}
func (StopCapture) intent()       {}
func (GenerateNote) intent()      {}
func (CreateMacro) intent()       {}
func (ShowHelp) intent()          {}
func (Unknown) intent()           {}

func (i LoadPatient) String() string  { return "LoadPatient(" + strconv.Quote(i.Identifier) + ")" }
func (i ShowSection) String() string  { return "ShowSection(" + string(i.Section) + ")" }
func (i SwitchTarget) String() string { return "SwitchTarget(" + strconv.Quote(i.Target) + ")" }
func (i ActivateAssistant) String() string {
	if i.Query == "" {
		return "ActivateAssistant"
	}
	return "ActivateAssistant(" + strconv.Quote(i.Query) + ")"
}
func (i Order) String() string {
	return "Order(" + string(i.Type) + ", " + strconv.Quote(i.Details) + ")"
}
func (ShowWorklist) String() string  { return "ShowWorklist" }
func (i CheckIn) String() string     { return "CheckIn(" + strconv.Itoa(i.Index) + ")" }
func (StartCapture) String() string  { return "StartCapture" }
func (StopCapture) String() string   { return "StopCapture" }
func (GenerateNote) String() string  { return "GenerateNote" }
func (i CreateMacro) String() string {
	return "CreateMacro(" + strconv.Quote(i.Trigger) + ", " + strconv.Itoa(len(i.Actions)) + " actions)"
}
func (ShowHelp) String() string  { return "ShowHelp" }
func (i Unknown) String() string { return "Unknown(" + strconv.Quote(i.RawText) + ")" }

// IsDataDisplay reports whether the intent renders data of the active patient.
func IsDataDisplay(i Intent) bool {
	_, ok := i.(ShowSection)
	return ok
}

// CloneIntents returns a copy of the list. CreateMacro payloads are copied deeply
// so callers can never alias a registry's stored actions.
func CloneIntents(in []Intent) []Intent {
	if in == nil {
		return nil
	}
	out := make([]Intent, len(in))
	for i, it := range in {
		if cm, ok := it.(CreateMacro); ok {
			cm.Actions = CloneIntents(cm.Actions)
			it = cm
		}
		out[i] = it
	}
	return out
}

// KindsOf returns the kinds of the intents, in order.
func KindsOf(in []Intent) []Kind {
	out := make([]Kind, len(in))
	for i, it := range in {
		out[i] = it.Kind()
	}
	return out
}
