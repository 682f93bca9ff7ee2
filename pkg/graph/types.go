package graph

// NodeKind is the entity type of a node
type NodeKind string

const (
	KindFramework     NodeKind = "Framework"
	KindControlFamily NodeKind = "ControlFamily"
	KindControl       NodeKind = "Control"
	KindBaseline      NodeKind = "Baseline"
	KindServiceModel  NodeKind = "ServiceModel"
	KindEvidenceType  NodeKind = "EvidenceType"
	KindDocumentType  NodeKind = "DocumentType"
)

// AllKinds lists every node kind in sidebar order
var AllKinds = []NodeKind{
	KindFramework,
	KindControlFamily,
	KindControl,
	KindBaseline,
	KindServiceModel,
	KindEvidenceType,
	KindDocumentType,
}

// Valid reports whether k is one of the known kinds
func (k NodeKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Predicate is the relationship type of an edge
type Predicate string

const (
	PredicateContains         Predicate = "CONTAINS"
	PredicateAssignedTo       Predicate = "ASSIGNED_TO"
	PredicateMapsTo           Predicate = "MAPS_TO"
	PredicateRequiresEvidence Predicate = "REQUIRES_EVIDENCE"
	PredicateResponsibilityOf Predicate = "RESPONSIBILITY_OF"
	PredicateDocumentedIn     Predicate = "DOCUMENTED_IN"
	PredicateInheritsFrom     Predicate = "INHERITS_FROM"
	PredicatePartOf           Predicate = "PART_OF"
	PredicateSupersedes       Predicate = "SUPERSEDES"
)

// PredicateOrder is the display order used by the sidebar and the detail panel
var PredicateOrder = []Predicate{
	PredicateContains,
	PredicateMapsTo,
	PredicateAssignedTo,
	PredicateRequiresEvidence,
	PredicateResponsibilityOf,
	PredicateDocumentedIn,
	PredicateInheritsFrom,
	PredicatePartOf,
	PredicateSupersedes,
}

// unrankedPredicate sorts unknown predicates after every known one
const unrankedPredicate = 99

// Rank returns the display position of p
func (p Predicate) Rank() int {
	for i, known := range PredicateOrder {
		if p == known {
			return i
		}
	}
	return unrankedPredicate
}

// Valid reports whether p is one of the known predicates
func (p Predicate) Valid() bool {
	return p.Rank() != unrankedPredicate
}

// Plane groups predicates into visual layers
type Plane string

const (
	PlaneCompliance     Plane = "COMPLIANCE"
	PlaneMapping        Plane = "MAPPING"
	PlaneResponsibility Plane = "RESPONSIBILITY"
	PlaneEvidence       Plane = "EVIDENCE"
)

// Node represents an entity of the knowledge graph
type Node struct {
	ID    string
	Kind  NodeKind
	Label string
	Props map[string]any
}

// Edge represents a typed relationship between two nodes
type Edge struct {
	ID         string
	Source     string
	Target     string
	Predicate  Predicate
	Plane      Plane
	Confidence float64
	Meta       map[string]string
}

// SelfLoop reports whether the edge starts and ends on the same node
func (e *Edge) SelfLoop() bool {
	return e.Source == e.Target
}

// Other returns the endpoint opposite to nodeID
func (e *Edge) Other(nodeID string) string {
	if e.Source == nodeID {
		return e.Target
	}
	return e.Source
}

// Touches reports whether nodeID is one of the edge endpoints
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Stats carries per-kind and per-predicate totals as shipped by the data source
type Stats struct {
	NodeTypes      map[string]int `json:"node_types"`
	EdgePredicates map[string]int `json:"edge_predicates"`
}
