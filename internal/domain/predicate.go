package domain

import "fmt"

// Attribute identifies one of the three filterable incident attributes
type Attribute int

const (
	AttrDistrict Attribute = iota
	AttrComplaint
	AttrCallType
)

// Attributes lists the filterable attributes in dropdown order
var Attributes = []Attribute{AttrDistrict, AttrComplaint, AttrCallType}

func (a Attribute) String() string {
	switch a {
	case AttrDistrict:
		return "district"
	case AttrComplaint:
		return "complaint"
	case AttrCallType:
		return "callType"
	}
	return fmt.Sprintf("attribute(%d)", int(a))
}

// FilterPredicate holds exact-match constraints. An empty field means no constraint.
type FilterPredicate struct {
	District  string `json:"district,omitempty" query:"district"`
	Complaint string `json:"complaint,omitempty" query:"complaint"`
	CallType  string `json:"callType,omitempty" query:"callType"`
}

// IsEmpty reports whether the predicate constrains nothing
func (p FilterPredicate) IsEmpty() bool {
	return p.District == "" && p.Complaint == "" && p.CallType == ""
}

// Value returns the constraint on an attribute ("" when unconstrained)
func (p FilterPredicate) Value(a Attribute) string {
	switch a {
	case AttrDistrict:
		return p.District
	case AttrComplaint:
		return p.Complaint
	case AttrCallType:
		return p.CallType
	}
	return ""
}

// Matches is exact, case-sensitive equality on every present field
func (p FilterPredicate) Matches(i Incident) bool {
	if p.District != "" && i.District != p.District {
		return false
	}
	if p.Complaint != "" && i.Complaint != p.Complaint {
		return false
	}
	if p.CallType != "" && i.CallType != p.CallType {
		return false
	}
	return true
}

// Set returns a copy with one attribute replaced; "" clears it
func (p FilterPredicate) Set(a Attribute, value string) FilterPredicate {
	switch a {
	case AttrDistrict:
		p.District = value
	case AttrComplaint:
		p.Complaint = value
	case AttrCallType:
		p.CallType = value
	}
	return p
}

// PredicateUpdate is a partial predicate. Nil fields keep their current value,
// a pointer to "" clears the field.
type PredicateUpdate struct {
	District  *string `json:"district,omitempty"`
	Complaint *string `json:"complaint,omitempty"`
	CallType  *string `json:"callType,omitempty"`
}

// Apply merges the update into p
func (u PredicateUpdate) Apply(p FilterPredicate) FilterPredicate {
	if u.District != nil {
		p = p.Set(AttrDistrict, *u.District)
	}
	if u.Complaint != nil {
		p = p.Set(AttrComplaint, *u.Complaint)
	}
	if u.CallType != nil {
		p = p.Set(AttrCallType, *u.CallType)
	}
	return p
}

// EventKind names a dropdown change
type EventKind string

const (
	DistrictChanged  EventKind = "districtChanged"
	ComplaintChanged EventKind = "complaintChanged"
	CallTypeChanged  EventKind = "callTypeChanged"
)

// Attribute maps the event to the attribute it changes
func (k EventKind) Attribute() (Attribute, error) {
	switch k {
	case DistrictChanged:
		return AttrDistrict, nil
	case ComplaintChanged:
		return AttrComplaint, nil
	case CallTypeChanged:
		return AttrCallType, nil
	}
	return 0, fmt.Errorf("domain: unknown event kind %q", string(k))
}

// SelectionEvent is one UI selection change delivered to a session
type SelectionEvent struct {
	Kind  EventKind `json:"kind"`
	Value string    `json:"value"`
}

// Update converts the event to a partial predicate
func (e SelectionEvent) Update() (PredicateUpdate, error) {
	attr, err := e.Kind.Attribute()
	if err != nil {
		return PredicateUpdate{}, err
	}
	v := e.Value
	switch attr {
	case AttrDistrict:
		return PredicateUpdate{District: &v}, nil
	case AttrComplaint:
		return PredicateUpdate{Complaint: &v}, nil
	default:
		return PredicateUpdate{CallType: &v}, nil
	}
}

// Vocabularies are the sorted, distinct dropdown values per attribute
type Vocabularies struct {
	District  []string `json:"district"`
	Complaint []string `json:"complaint"`
	CallType  []string `json:"callType"`
}

// EmptyVocabularies returns non-nil empty lists so they encode as []
func EmptyVocabularies() Vocabularies {
	return Vocabularies{District: []string{}, Complaint: []string{}, CallType: []string{}}
}
