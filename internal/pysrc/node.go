package pysrc

// Kind is the closed set of syntax node variants produced by the parser.
// The walker and every rule switch over this set exhaustively; adding a
// kind here forces a review of each of those switches.
type Kind uint8

const (
	KindModule Kind = iota
	KindImport
	KindImportFrom
	KindFunctionDef
	KindClassDef
	KindIf
	KindFor
	KindWhile
	KindReturn
	KindRaise
	KindBreak
	KindContinue
	KindPass
	KindAssign
	KindAugAssign
	KindAssert
	KindDelete
	KindGlobal
	KindNonlocal
	KindExprStmt
	KindWith
	KindWithItem
	KindTry
	KindExceptHandler
	KindCall
	KindKeyword
	KindAttribute
	KindSubscript
	KindName
	KindConstant
	KindBoolOp
	KindUnaryOp
	KindBinOp
	KindCompare
	KindListLit
	KindTupleLit
	KindDictLit
	KindComprehension
	KindIfExp
	KindSlice
)

var kindNames = map[Kind]string{
	KindModule:        "Module",
	KindImport:        "Import",
	KindImportFrom:    "ImportFrom",
	KindFunctionDef:   "FunctionDef",
	KindClassDef:      "ClassDef",
	KindIf:            "If",
	KindFor:           "For",
	KindWhile:         "While",
	KindReturn:        "Return",
	KindRaise:         "Raise",
	KindBreak:         "Break",
	KindContinue:      "Continue",
	KindPass:          "Pass",
	KindAssign:        "Assign",
	KindAugAssign:     "AugAssign",
	KindAssert:        "Assert",
	KindDelete:        "Delete",
	KindGlobal:        "Global",
	KindNonlocal:      "Nonlocal",
	KindExprStmt:      "ExprStmt",
	KindWith:          "With",
	KindWithItem:      "WithItem",
	KindTry:           "Try",
	KindExceptHandler: "ExceptHandler",
	KindCall:          "Call",
	KindKeyword:       "Keyword",
	KindAttribute:     "Attribute",
	KindSubscript:     "Subscript",
	KindName:          "Name",
	KindConstant:      "Constant",
	KindBoolOp:        "BoolOp",
	KindUnaryOp:       "UnaryOp",
	KindBinOp:         "BinOp",
	KindCompare:       "Compare",
	KindListLit:       "List",
	KindTupleLit:      "Tuple",
	KindDictLit:       "Dict",
	KindComprehension: "Comprehension",
	KindIfExp:         "IfExp",
	KindSlice:         "Slice",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Alias is one name bound by an import statement. Name is the dotted
// module path (or imported symbol for "from" imports); "*" marks a
// wildcard import. AsName is the optional rebinding.
type Alias struct {
	Name   string
	AsName string
	Line   int
	Col    int
}

// Binding returns the local name the alias introduces: the AsName if
// present, otherwise the first dotted segment for plain imports and
// the full name for "from" imports.
func (a Alias) Binding(fromImport bool) string {
	if a.AsName != "" {
		return a.AsName
	}
	if fromImport {
		return a.Name
	}
	name := a.Name
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

// Node is one syntax tree node. Only the fields relevant to its Kind
// are populated; children appear in source order. Parents own their
// children exclusively; ancestor context is carried by the walker,
// not by back-references.
type Node struct {
	Kind Kind
	Line int // 1-based
	Col  int // 1-based

	// Identifier payloads.
	Name    string // Name, Attribute attr, FunctionDef/ClassDef, Keyword arg
	Literal string // Constant: raw literal text
	IsStr   bool   // Constant: literal is a string
	Op      string // BinOp/UnaryOp/BoolOp/Compare/AugAssign operator
	Module  string // ImportFrom: dotted source module
	Store   bool   // Name appears in a binding (store) position

	Aliases []Alias  // Import, ImportFrom
	Params  []string // FunctionDef parameter names
	Names   []string // Global, Nonlocal

	Test       *Node   // If, While, Assert, IfExp, ExceptHandler type
	Target     *Node   // For, AugAssign, WithItem "as", Comprehension
	Iter       *Node   // For, Comprehension
	Value      *Node   // Return, Raise, Assign, ExprStmt, Attribute, Subscript, ...
	Left       *Node   // BinOp, Compare, IfExp body, Slice lower
	Right      *Node   // BinOp, IfExp else, Slice upper
	Index      *Node   // Subscript
	Func       *Node   // Call
	Msg        *Node   // Assert message
	Anno       *Node   // Assign annotation
	Returns    *Node   // FunctionDef return annotation
	Args       []*Node // Call positional args
	Keywords   []*Node // Call keyword args (KindKeyword nodes)
	Elts       []*Node // List/Tuple/Dict/BoolOp/Compare operands, Delete targets, Comprehension conditions
	Targets    []*Node // Assign targets
	Defaults   []*Node // FunctionDef parameter default/annotation expressions
	Decorators []*Node // FunctionDef, ClassDef
	Items      []*Node // With items (KindWithItem)
	Handlers   []*Node // Try handlers (KindExceptHandler)
	Final      []*Node // Try finally block
	Body       []*Node // block statements
	Orelse     []*Node // else/elif block
}
