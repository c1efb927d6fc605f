package lang

// typeKeywords are the words tokenized as element-type names (Keyword tokens).
// Centralizing this table mirrors original_source's LanguageConstants.cpp,
// which keeps every DSL keyword, section name, and operator symbol in one
// place instead of duplicating them across the three DSL tokenizers.
var typeKeywords = []string{
	"I8", "I16", "I32", "I64", "U8", "U16", "U32", "U64", "F32", "F64", "bool",
}

// WordOperators are multi-letter operator spellings ("and", "or", "not")
// that must be recognized as operators rather than identifiers.
var WordOperators = map[string]bool{
	"and": true, "or": true, "not": true,
	"true": true, "false": true, // constants, not operators, but also reserved words
}

// ReservedSectionNames are state names forbidden in the state machine and
// state script DSLs because the state script DSL repurposes them.
var ReservedSectionNames = map[string]bool{
	"all_states": true,
	"options":    true,
}
