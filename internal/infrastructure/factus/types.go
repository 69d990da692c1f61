package factus

// Cuerpos de /v1/bills/validate y /v1/credit-notes/validate.

type customerPayload struct {
	Identification           string `json:"identification"`
	DV                       string `json:"dv,omitempty"`
	Company                  string `json:"company,omitempty"`
	TradeName                string `json:"trade_name,omitempty"`
	Names                    string `json:"names,omitempty"`
	Address                  string `json:"address,omitempty"`
	Email                    string `json:"email,omitempty"`
	Phone                    string `json:"phone,omitempty"`
	LegalOrganizationID      string `json:"legal_organization_id"`
	TributeID                string `json:"tribute_id"`
	IdentificationDocumentID int    `json:"identification_document_id"`
	MunicipalityID           string `json:"municipality_id,omitempty"`
}

type withholdingTax struct {
	Code           string `json:"code"`
	WithholdingTax string `json:"withholding_tax_rate"`
}

type itemPayload struct {
	CodeReference    string           `json:"code_reference"`
	Name             string           `json:"name"`
	Quantity         string           `json:"quantity"`
	DiscountRate     string           `json:"discount_rate"`
	Price            string           `json:"price"`
	TaxRate          string           `json:"tax_rate"`
	UnitMeasureID    int              `json:"unit_measure_id"`
	StandardCodeID   int              `json:"standard_code_id"`
	IsExcluded       int              `json:"is_excluded"`
	TributeID        int              `json:"tribute_id"`
	WithholdingTaxes []withholdingTax `json:"withholding_taxes"`
}

type billPayload struct {
	NumberingRangeID  int             `json:"numbering_range_id,omitempty"`
	ReferenceCode     string          `json:"reference_code"`
	Observation       string          `json:"observation,omitempty"`
	PaymentForm       string          `json:"payment_form"`
	PaymentDueDate    string          `json:"payment_due_date,omitempty"`
	PaymentMethodCode string          `json:"payment_method_code"`
	Customer          customerPayload `json:"customer"`
	Items             []itemPayload   `json:"items"`
}

type creditNotePayload struct {
	NumberingRangeID      int             `json:"numbering_range_id,omitempty"`
	CorrectionConceptCode int             `json:"correction_concept_code"`
	CustomizationID       int             `json:"customization_id"`
	BillID                int64           `json:"bill_id"`
	ReferenceCode         string          `json:"reference_code"`
	Observation           string          `json:"observation,omitempty"`
	PaymentMethodCode     string          `json:"payment_method_code"`
	Customer              customerPayload `json:"customer"`
	Items                 []itemPayload   `json:"items"`
}

type documentData struct {
	ID            int64  `json:"id"`
	Number        string `json:"number"`
	ReferenceCode string `json:"reference_code"`
	Status        int    `json:"status"`
	CUFE          string `json:"cufe"`
	CUDE          string `json:"cude"`
	QR            string `json:"qr"`
	Validated     string `json:"validated"`
	Errors        any    `json:"errors"`
}

type billResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Bill documentData `json:"bill"`
	} `json:"data"`
}

type creditNoteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CreditNote documentData `json:"credit_note"`
	} `json:"data"`
}
