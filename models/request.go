package models

// Identifier is a typed security reference forming the request universe.
// Identifiers are supplied externally and passed through to the API as-is.
type Identifier struct {
	Type            string `json:"@type"`
	IdentifierType  string `json:"identifierType"`
	IdentifierValue string `json:"identifierValue"`
}

// FieldSpec names a single requested data field by mnemonic.
type FieldSpec struct {
	Mnemonic string `json:"mnemonic"`
}

// DefaultFields is the field list requested when the caller does not
// supply one: the financial ratio mnemonics loaded into the store.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{Mnemonic: "TOT_DEBT_TO_TOT_ASSET"},
		{Mnemonic: "CASH_DVD_COVERAGE"},
		{Mnemonic: "TOT_DEBT_TO_EBITDA"},
		{Mnemonic: "CUR_RATIO"},
		{Mnemonic: "QUICK_RATIO"},
		{Mnemonic: "GROSS_MARGIN"},
		{Mnemonic: "INTEREST_COVERAGE_RATIO"},
		{Mnemonic: "EBITDA_MARGIN"},
		{Mnemonic: "TOT_LIAB_AND_EQY"},
		{Mnemonic: "NET_DEBT_TO_SHRHLDR_EQTY"},
	}
}

// Universe is the set of securities a DataRequest covers.
type Universe struct {
	Type     string       `json:"@type"`
	Contains []Identifier `json:"contains"`
}

// DataFieldList is the set of fields a DataRequest asks for.
type DataFieldList struct {
	Type     string      `json:"@type"`
	Contains []FieldSpec `json:"contains"`
}

// Trigger controls when the server runs the request. SubmitTrigger means
// run immediately on submission.
type Trigger struct {
	Type string `json:"@type"`
}

// MediaType declares the output format of the result artifact.
type MediaType struct {
	Type            string `json:"@type"`
	OutputMediaType string `json:"outputMediaType"`
}

// DataRequest is the request document POSTed to a catalog's requests
// collection. It is created once per run and never mutated after
// submission.
type DataRequest struct {
	Type        string        `json:"@type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Universe    Universe      `json:"universe"`
	FieldList   DataFieldList `json:"fieldList"`
	Trigger     Trigger       `json:"trigger"`
	Formatting  MediaType     `json:"formatting"`
}

// NewDataRequest assembles a request document for the given universe and
// fields with an immediate-submission trigger and JSON output.
func NewDataRequest(name string, identifiers []Identifier, fields []FieldSpec) DataRequest {
	return DataRequest{
		Type:        "DataRequest",
		Name:        name,
		Description: "Bloomberg financial data request using identifiers from JSON file",
		Universe: Universe{
			Type:     "Universe",
			Contains: identifiers,
		},
		FieldList: DataFieldList{
			Type:     "DataFieldList",
			Contains: fields,
		},
		Trigger: Trigger{
			Type: "SubmitTrigger",
		},
		Formatting: MediaType{
			Type:            "MediaType",
			OutputMediaType: "application/json",
		},
	}
}

// Catalog is a vendor-side container scoping requests and responses to an
// account subscription.
type Catalog struct {
	Identifier       string `json:"identifier"`
	SubscriptionType string `json:"subscriptionType"`
	Title            string `json:"title"`
}

// CatalogList is the body of the catalog listing endpoint.
type CatalogList struct {
	Contains []Catalog `json:"contains"`
}

// ResponseEntry is one completed result artifact available for retrieval.
type ResponseEntry struct {
	Key          string `json:"key"`
	LastModified string `json:"lastModified"`
}

// ResponseList is the body of the catalog's response listing endpoint.
type ResponseList struct {
	Contains []ResponseEntry `json:"contains"`
}

// CreatedRequest is the body returned when a request resource is created.
type CreatedRequest struct {
	Request struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
	} `json:"request"`
}
